// Package queue publishes user email requests to SQS and decodes them on the
// consuming side.
package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"usermail/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// EmailEnqueuer publishes UserEmailMessages to the user email queue.
type EmailEnqueuer struct {
	client            SQSSender
	queueURL          string
	compressThreshold int
	logger            *slog.Logger
}

// NewEmailEnqueuer creates an EmailEnqueuer. Bodies larger than
// compressThreshold bytes are zstd-compressed; zero disables compression.
func NewEmailEnqueuer(client SQSSender, queueURL string, compressThreshold int, logger *slog.Logger) *EmailEnqueuer {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailEnqueuer{
		client:            client,
		queueURL:          queueURL,
		compressThreshold: compressThreshold,
		logger:            logger,
	}
}

// Enqueue sends msg and returns the SQS message id. A missing TraceID is
// filled with a new UUID. Messages without user_id or type are rejected
// before anything is sent.
func (e *EmailEnqueuer) Enqueue(ctx context.Context, msg types.UserEmailMessage) (string, error) {
	if msg.UserID == 0 {
		return "", types.InvalidParameters("user_id")
	}
	if msg.Type == "" {
		return "", types.InvalidParameters("type")
	}
	if msg.TraceID == "" {
		msg.TraceID = uuid.New().String()
	}

	body, encoding, err := EncodeMessage(msg, e.compressThreshold)
	if err != nil {
		return "", err
	}

	attrs := map[string]sqsTypes.MessageAttributeValue{
		types.AttrEmailType: {
			DataType:    aws.String("String"),
			StringValue: aws.String(string(msg.Type)),
		},
	}
	if encoding != "" {
		attrs[types.AttrContentEncoding] = sqsTypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(encoding),
		}
	}

	out, err := e.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(e.queueURL),
		MessageBody:       aws.String(body),
		MessageAttributes: attrs,
	})
	if err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamQueue,
			fmt.Sprintf("failed to send user email message to %s", e.queueURL), err)
	}

	messageID := aws.ToString(out.MessageId)
	e.logger.InfoContext(ctx, "user email enqueued",
		"message_id", messageID,
		"trace_id", msg.TraceID,
		"user_id", msg.UserID,
		"email_type", string(msg.Type),
		"compressed", encoding != "",
	)
	return messageID, nil
}
