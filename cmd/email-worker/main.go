// Package main is the entrypoint for the User Email Worker Lambda function.
//
// The worker consumes user email jobs from the SQS queue, decides for each one
// whether the email should be sent, skipped (with an email_logs row) or
// silently suppressed, and delivers the emails that pass through the
// configured provider. Each invocation receives a batch of SQS messages.
//
// Cold Start (main):
//  1. Load configuration (env, .env, secret references).
//  2. Initialize structured logger at the configured level.
//  3. Open the PostgreSQL pool and build the repositories.
//  4. Initialize the email provider, renderer and builder registry.
//  5. Initialize CloudWatch decision metrics when enabled.
//  6. Assemble the Coordinator and register the handler.
//
// Handler flow per record:
//
//	1. Decode the UserEmailMessage (honouring content_encoding).
//	2. Execute the Coordinator under a per-job timeout.
//	3. Contract violations are logged and ACKed; any other error is
//	   reported as a batch item failure so SQS redelivers the record.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"golang.org/x/sync/errgroup"

	"usermail/internal/config"
	"usermail/internal/db"
	"usermail/internal/external"
	"usermail/internal/notifications/core"
	"usermail/internal/notifications/email"
	"usermail/internal/queue"
	"usermail/internal/types"
	"usermail/internal/useremail"
)

// slogAdapter wraps *slog.Logger to implement the types.Logger interface.
// slog.Logger satisfies Info, Error and Warn but its With returns
// *slog.Logger, so an adapter is necessary.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *slogAdapter) With(args ...any) types.Logger {
	return &slogAdapter{logger: a.logger.With(args...)}
}

// executor runs one user email job.
type executor interface {
	Execute(ctx context.Context, req useremail.Request) (useremail.Result, error)
}

// failureRecorder counts jobs that ended in an error.
type failureRecorder interface {
	RecordFailure(ctx context.Context, emailType types.EmailType, class core.FailureClass)
}

// Handler holds the dependencies for the email worker Lambda handler.
type Handler struct {
	coordinator executor
	failures    failureRecorder
	concurrency int
	jobTimeout  time.Duration
	logger      types.Logger
}

// Handle processes an SQS batch. Records are evaluated concurrently up to the
// configured limit; each record succeeds or fails on its own and failures are
// returned in batchItemFailures so SQS retries only those messages.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	failed := make([]bool, len(sqsEvent.Records))

	g := new(errgroup.Group)
	g.SetLimit(h.concurrency)
	for i, record := range sqsEvent.Records {
		g.Go(func() error {
			if err := h.processMessage(ctx, record); err != nil {
				h.logger.Error("failed to process SQS message",
					"message_id", record.MessageId,
					"error", err.Error(),
				)
				failed[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	response := events.SQSEventResponse{}
	for i, record := range sqsEvent.Records {
		if failed[i] {
			response.BatchItemFailures = append(response.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: record.MessageId},
			)
		}
	}
	return response, nil
}

// processMessage runs a single record. A nil return ACKs the record.
func (h *Handler) processMessage(ctx context.Context, record events.SQSMessage) error {
	msg, err := queue.DecodeMessage(record.Body, contentEncoding(record))
	if err != nil {
		h.logger.Error("discarding undecodable user email message",
			"message_id", record.MessageId,
			"error", err.Error(),
		)
		h.recordFailure(ctx, "", core.FailureInvalid)
		return nil
	}

	logger := h.logger.With(
		"message_id", record.MessageId,
		"user_id", msg.UserID,
		"email_type", string(msg.Type),
		"trace_id", msg.TraceID,
	)

	jobCtx := types.WithLogger(ctx, logger)
	if msg.TraceID != "" {
		jobCtx = types.WithTraceID(jobCtx, msg.TraceID)
	}
	if h.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, h.jobTimeout)
		defer cancel()
	}

	result, err := h.coordinator.Execute(jobCtx, useremail.RequestFromMessage(msg))
	if err != nil {
		if useremail.IsContractViolation(err) {
			logger.Error("discarding invalid user email job", "error", err.Error())
			h.recordFailure(ctx, msg.Type, core.FailureInvalid)
			return nil
		}
		h.recordFailure(ctx, msg.Type, core.FailureFailed)
		return fmt.Errorf("execute user email job: %w", err)
	}

	if result.Reason != nil {
		logger.Info("user email job completed",
			"outcome", string(result.Outcome),
			"reason", string(result.Reason.Code),
		)
	}
	return nil
}

func (h *Handler) recordFailure(ctx context.Context, emailType types.EmailType, class core.FailureClass) {
	if h.failures != nil {
		h.failures.RecordFailure(ctx, emailType, class)
	}
}

// contentEncoding reads the content_encoding message attribute, if any.
func contentEncoding(record events.SQSMessage) string {
	attr, ok := record.MessageAttributes[types.AttrContentEncoding]
	if !ok || attr.StringValue == nil {
		return ""
	}
	return *attr.StringValue
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	cfg, err := config.LoadConfig(config.NewEnvVarProvider())
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logger at startup (Cold Start).
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})).With("service", cfg.Service, "version", cfg.Build.Version)

	logger.Info("User Email Worker Lambda initializing (cold start)")

	typedLogger := &slogAdapter{logger: logger}
	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	emailLogs := db.NewEmailLogRepository(pool)

	provider, err := external.NewEmailProvider(cfg.Email, cfg.IsLocal(), typedLogger)
	if err != nil {
		logger.Error("Failed to initialize email provider", "error", err)
		os.Exit(1)
	}

	renderer, err := email.NewRenderer()
	if err != nil {
		logger.Error("Failed to parse email templates", "error", err)
		os.Exit(1)
	}
	registry := email.NewRegistry(renderer, email.Site{
		Name:    cfg.Email.FromName,
		BaseURL: strings.TrimRight(cfg.Email.BaseURL, "/"),
	})

	sender := email.NewSender(email.SenderConfig{
		Provider: provider,
		Logs:     emailLogs,
		From: types.SenderIdentity{
			Name:    cfg.Email.FromName,
			Address: cfg.Email.FromAddress,
		},
		Logger: typedLogger,
	})

	handler := &Handler{
		concurrency: cfg.Worker.Concurrency,
		jobTimeout:  cfg.Worker.JobTimeout,
		logger:      typedLogger,
	}

	coordCfg := useremail.CoordinatorConfig{
		Resolver: useremail.NewResolver(
			db.NewUserRepository(pool),
			db.NewPostRepository(pool),
			db.NewNotificationRepository(pool),
			db.NewReadStateRepository(pool),
		),
		Policy: useremail.NewPolicy(cfg.Policy.EmailTimeWindow(), registry, nil),
		Audit:  useremail.NewAuditLogger(emailLogs, typedLogger),
		Sender: sender,
		Logger: typedLogger,
	}

	if cfg.Observability.EnableMetrics && !cfg.IsLocal() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			logger.Error("Failed to load AWS SDK config", "error", err)
			os.Exit(1)
		}
		cwClient := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
			if cfg.AWS.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
			}
		})
		metrics := core.NewDecisionMetrics(cwClient, cfg.Observability.MetricNamespace, typedLogger)
		coordCfg.Metrics = metrics
		handler.failures = metrics
	}

	handler.coordinator = useremail.NewCoordinator(coordCfg)

	logger.Info("User Email Worker Lambda initialized",
		"email_provider", cfg.Email.Provider,
		"email_types", len(registry.Types()),
		"concurrency", cfg.Worker.Concurrency,
		"metrics_enabled", handler.failures != nil,
	)

	// Local mode: read JSON SQS event from stdin instead of starting Lambda runtime.
	// Usage: echo '{"Records":[{"messageId":"1","body":"{...}"}]}' | go run ./cmd/email-worker
	if cfg.IsLocal() {
		logger.Info("APP_ENV=local: reading SQS event from stdin")
		payload, err := io.ReadAll(os.Stdin)
		if err != nil {
			logger.Error("Failed to read stdin", "error", err)
			os.Exit(1)
		}
		if len(payload) == 0 {
			logger.Error("No input received on stdin")
			os.Exit(1)
		}
		var sqsEvent events.SQSEvent
		if err := json.Unmarshal(payload, &sqsEvent); err != nil {
			logger.Error("Failed to parse stdin as SQS event", "error", err)
			os.Exit(1)
		}
		response, err := handler.Handle(ctx, sqsEvent)
		if err != nil {
			logger.Error("Handler execution failed", "error", err)
			os.Exit(1)
		}
		if len(response.BatchItemFailures) > 0 {
			respJSON, _ := json.MarshalIndent(response, "", "  ")
			fmt.Fprintln(os.Stderr, string(respJSON))
		}
		logger.Info("Handler execution completed",
			"records_processed", len(sqsEvent.Records),
			"failures", len(response.BatchItemFailures),
		)
		return
	}

	lambda.Start(handler.Handle)
}

// Compile-time assertion that slogAdapter implements types.Logger.
var _ types.Logger = (*slogAdapter)(nil)
