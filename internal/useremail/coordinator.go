package useremail

import (
	"context"
	"time"

	"usermail/internal/notifications/email"
	"usermail/internal/types"
)

// Outcome is what Execute did with a request.
type Outcome string

const (
	OutcomeSent       Outcome = "sent"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeSuppressed Outcome = "suppressed"
	// OutcomeEmpty means every rule passed but the builder had nothing to send.
	OutcomeEmpty Outcome = "empty"
)

// Result is returned by Execute. Log is the email_logs row for sent and
// skipped outcomes and nil otherwise.
type Result struct {
	Outcome Outcome
	Log     *types.EmailLog
	Reason  *SkipReason
}

// MessageSender delivers a built message and records it.
type MessageSender interface {
	Send(ctx context.Context, msg *email.Message, emailType types.EmailType, user *types.User) (*types.EmailLog, error)
}

// DecisionRecorder receives one call per completed evaluation. reasonCode is
// empty unless the outcome is skipped.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, emailType types.EmailType, outcome string, reasonCode string, elapsed time.Duration)
}

// CoordinatorConfig holds the collaborators of a Coordinator.
type CoordinatorConfig struct {
	Resolver *Resolver
	Policy   *Policy
	Audit    *AuditLogger
	Sender   MessageSender
	Metrics  DecisionRecorder
	Clock    types.Clock
	Logger   types.Logger
}

// Coordinator runs one evaluation end to end.
type Coordinator struct {
	resolver *Resolver
	policy   *Policy
	audit    *AuditLogger
	sender   MessageSender
	metrics  DecisionRecorder
	clock    types.Clock
	logger   types.Logger
}

// NewCoordinator creates a Coordinator. Metrics may be nil.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	c := &Coordinator{
		resolver: cfg.Resolver,
		policy:   cfg.Policy,
		audit:    cfg.Audit,
		sender:   cfg.Sender,
		metrics:  cfg.Metrics,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}
	if c.clock == nil {
		c.clock = types.RealClock{}
	}
	if c.logger == nil {
		c.logger = types.NopLogger{}
	}
	return c
}

// Execute validates req, resolves its entities, evaluates the policy and
// acts on the decision. Contract violations and infrastructure failures are
// returned as errors; skips and suppressions are results.
func (c *Coordinator) Execute(ctx context.Context, req Request) (Result, error) {
	start := c.clock.Now()

	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	logger := types.LoggerFromContext(ctx)
	if logger == nil {
		logger = c.logger
	}
	logger = logger.With("user_id", req.UserID, "email_type", string(req.Type))

	res, err := c.resolver.Resolve(ctx, req)
	if err != nil {
		return Result{}, err
	}

	var result Result
	if res.Skip != nil {
		result, err = c.skip(ctx, res.SkipContext, *res.Skip)
	} else {
		result, err = c.decide(ctx, req, res)
	}
	if err != nil {
		return Result{}, err
	}

	c.record(ctx, req.Type, result, c.clock.Now().Sub(start))
	logger.Info("user email evaluated", "outcome", string(result.Outcome))
	return result, nil
}

func (c *Coordinator) decide(ctx context.Context, req Request, res Resolution) (Result, error) {
	decision, err := c.policy.Evaluate(req, res.Context)
	if err != nil {
		return Result{}, err
	}

	switch decision.Verdict {
	case VerdictSkip:
		return c.skip(ctx, res.SkipContext, decision.Reason)
	case VerdictSuppress:
		return Result{Outcome: OutcomeSuppressed}, nil
	}

	user := res.Context.User
	msg, err := decision.Builder.Build(user, decision.Args)
	if err != nil {
		return Result{}, err
	}
	if msg == nil {
		return Result{Outcome: OutcomeEmpty}, nil
	}
	if req.ToAddress != "" {
		msg.To = []string{req.ToAddress}
	}

	log, err := c.sender.Send(ctx, msg, req.Type, user)
	if err != nil {
		return Result{}, err
	}
	if log.Skipped {
		reason := deliverySkipReason(log.SkippedReason)
		return Result{Outcome: OutcomeSkipped, Log: log, Reason: &reason}, nil
	}
	return Result{Outcome: OutcomeSent, Log: log}, nil
}

func (c *Coordinator) skip(ctx context.Context, sc SkipContext, reason SkipReason) (Result, error) {
	log, err := c.audit.Record(ctx, sc, reason)
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: OutcomeSkipped, Log: log, Reason: &reason}, nil
}

func (c *Coordinator) record(ctx context.Context, emailType types.EmailType, result Result, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	var code string
	if result.Reason != nil {
		code = string(result.Reason.Code)
	}
	c.metrics.RecordDecision(ctx, emailType, string(result.Outcome), code, elapsed)
}

func deliverySkipReason(message string) SkipReason {
	if message == email.ReasonNoToAddress {
		return SkipReason{ReasonNoToAddress, message}
	}
	return SkipReason{ReasonRecipientBlocked, message}
}
