// Package main implements the enqueue-email CLI tool for placing a user email
// job on the SQS queue, the same way application producers do.
//
// This tool is intended for local development against LocalStack, manual
// resends and operational debugging. It constructs a types.UserEmailMessage
// from flags and hands it to queue.EmailEnqueuer.
//
// Usage:
//
//	go run ./cmd/tools/enqueue-email --list
//	go run ./cmd/tools/enqueue-email --type=user_replied --user=42 --post=1001 --notification=77
//	go run ./cmd/tools/enqueue-email --type=forgot_password --user=42 --token=abc123
//	go run ./cmd/tools/enqueue-email --dry-run --type=digest --user=42 --data='{"topics":[]}'
//
// The tool reads SQS_USER_EMAIL, AWS_REGION and AWS_ENDPOINT_URL from the
// environment (or .env file via godotenv). Flags override the environment.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"

	"usermail/internal/notifications/email"
	"usermail/internal/queue"
	"usermail/internal/types"
)

// jobFlags holds the raw flag values that describe one job.
type jobFlags struct {
	emailType        string
	userID           int64
	postID           int64
	notificationID   int64
	notificationType string
	data             string
	token            string
	to               string
	traceID          string
}

// buildMessage validates flag values and assembles the queue envelope.
// Zero ids mean "not set".
func buildMessage(f jobFlags, known map[types.EmailType]bool) (types.UserEmailMessage, error) {
	if f.userID <= 0 {
		return types.UserEmailMessage{}, fmt.Errorf("--user is required")
	}
	if f.emailType == "" {
		return types.UserEmailMessage{}, fmt.Errorf("--type is required")
	}
	emailType := types.EmailType(f.emailType)
	if !known[emailType] {
		return types.UserEmailMessage{}, fmt.Errorf("unknown email type %q", f.emailType)
	}

	msg := types.UserEmailMessage{
		UserID:     f.userID,
		Type:       emailType,
		EmailToken: f.token,
		ToAddress:  f.to,
		TraceID:    f.traceID,
	}
	if f.postID > 0 {
		msg.PostID = &f.postID
	}
	if f.notificationID > 0 {
		msg.NotificationID = &f.notificationID
	}
	if f.notificationType != "" {
		nt, err := types.ParseNotificationType(f.notificationType)
		if err != nil {
			return types.UserEmailMessage{}, err
		}
		msg.NotificationType = &nt
	}
	if f.data != "" {
		var data types.JSONMap
		if err := json.Unmarshal([]byte(f.data), &data); err != nil {
			return types.UserEmailMessage{}, fmt.Errorf("invalid --data: %w", err)
		}
		msg.NotificationData = data
	}
	return msg, nil
}

// knownTypes returns the email types the worker has builders for.
func knownTypes() (map[types.EmailType]bool, []types.EmailType, error) {
	renderer, err := email.NewRenderer()
	if err != nil {
		return nil, nil, err
	}
	list := email.NewRegistry(renderer, email.Site{}).Types()
	known := make(map[types.EmailType]bool, len(list))
	for _, t := range list {
		known[t] = true
	}
	return known, list, nil
}

func envInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func main() {
	// Load .env file for local development (non-fatal if missing).
	_ = godotenv.Load()

	var f jobFlags
	flag.StringVar(&f.emailType, "type", "", "Email type (e.g., user_replied, digest, signup)")
	flag.Int64Var(&f.userID, "user", 0, "Recipient user id")
	flag.Int64Var(&f.postID, "post", 0, "Post id for post-bound emails")
	flag.Int64Var(&f.notificationID, "notification", 0, "Notification id")
	flag.StringVar(&f.notificationType, "notification-type", "", "Override notification type (name or number)")
	flag.StringVar(&f.data, "data", "", "Override notification data (JSON object)")
	flag.StringVar(&f.token, "token", "", "Email token for signup/reset/login emails")
	flag.StringVar(&f.to, "to", "", "Override recipient address")
	flag.StringVar(&f.traceID, "trace-id", "", "Trace id (generated when empty)")
	queueURL := flag.String("queue-url", os.Getenv("SQS_USER_EMAIL"), "Target SQS queue URL")
	region := flag.String("region", envOr("AWS_REGION", "us-east-1"), "AWS region")
	endpoint := flag.String("endpoint", os.Getenv("AWS_ENDPOINT_URL"), "AWS endpoint override (LocalStack)")
	threshold := flag.Int("compress-threshold", envInt("QUEUE_COMPRESS_THRESHOLD", 65536), "Compress bodies larger than this many bytes (0 disables)")
	listFlag := flag.Bool("list", false, "List all email types and exit")
	dryRunFlag := flag.Bool("dry-run", false, "Print the JSON message without enqueuing")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: enqueue-email [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Place a user email job on the SQS queue.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	known, list, err := knownTypes()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *listFlag {
		for _, t := range list {
			fmt.Println(t)
		}
		return
	}

	msg, err := buildMessage(f, known)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n\n", err)
		flag.Usage()
		os.Exit(1)
	}

	if *dryRunFlag {
		out, _ := json.MarshalIndent(msg, "", "  ")
		fmt.Println(string(out))
		return
	}

	if *queueURL == "" {
		fmt.Fprintf(os.Stderr, "error: --queue-url or SQS_USER_EMAIL is required\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(*region))
	if err != nil {
		logger.Error("failed to load AWS SDK config", "error", err)
		os.Exit(1)
	}
	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if *endpoint != "" {
			o.BaseEndpoint = aws.String(*endpoint)
		}
	})

	enqueuer := queue.NewEmailEnqueuer(client, *queueURL, *threshold, logger)
	messageID, err := enqueuer.Enqueue(ctx, msg)
	if err != nil {
		logger.Error("enqueue failed", "error", err)
		os.Exit(1)
	}
	fmt.Println(messageID)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
