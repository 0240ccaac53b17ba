package email

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"usermail/internal/external"
	"usermail/internal/types"
)

// Skip reasons recorded by the Sender itself.
const (
	ReasonNoToAddress      = "no to address"
	ReasonRecipientBlocked = "recipient blocked by provider"
)

// NoEmailFound is written as to_address on skip rows that have no address.
const NoEmailFound = "no_email_found"

// EmailLogWriter is the slice of the email_logs repository the Sender needs.
type EmailLogWriter interface {
	CreateSent(ctx context.Context, log *types.EmailLog) error
	CreateSkipped(ctx context.Context, emailType types.EmailType, toAddress string, userID int64, reason string) (*types.EmailLog, error)
}

// SenderConfig holds the dependencies of a Sender.
type SenderConfig struct {
	Provider external.EmailProvider
	Logs     EmailLogWriter
	From     types.SenderIdentity
	Logger   types.Logger
}

// Sender delivers built messages and records every outcome in email_logs.
type Sender struct {
	provider external.EmailProvider
	logs     EmailLogWriter
	from     types.SenderIdentity
	logger   types.Logger
}

// NewSender creates a Sender.
func NewSender(cfg SenderConfig) *Sender {
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Sender{
		provider: cfg.Provider,
		logs:     cfg.Logs,
		from:     cfg.From,
		logger:   logger,
	}
}

// Send hands msg to the provider and returns the email_logs row for the
// outcome. A message without a recipient, or one the provider refuses to
// deliver, is logged as skipped and returned without error. Other provider
// failures are returned so the job can be retried.
func (s *Sender) Send(ctx context.Context, msg *Message, emailType types.EmailType, user *types.User) (*types.EmailLog, error) {
	to := msg.Recipient()
	if to == "" {
		return s.logs.CreateSkipped(ctx, emailType, NoEmailFound, user.ID, ReasonNoToAddress)
	}

	customArgs := map[string]string{
		"email_type": string(emailType),
		"user_id":    strconv.FormatInt(user.ID, 10),
	}
	if msg.PostID != nil {
		customArgs["post_id"] = strconv.FormatInt(*msg.PostID, 10)
	}

	msgID, err := s.provider.Send(ctx, types.SendInput{
		To:          to,
		From:        s.from,
		Subject:     msg.Subject,
		BodyHTML:    msg.HTML,
		BodyText:    msg.Text,
		Headers:     msg.Headers,
		CustomArgs:  customArgs,
		ReferenceID: uuid.NewString(),
	})
	if err != nil {
		if IsBlocklistError(err) {
			s.logger.Warn("recipient blocked by provider", "to", RedactEmail(to), "email_type", string(emailType))
			return s.logs.CreateSkipped(ctx, emailType, to, user.ID, ReasonRecipientBlocked)
		}
		return nil, err
	}

	log := &types.EmailLog{
		EmailType:     emailType,
		ToAddress:     to,
		UserID:        user.ID,
		PostID:        msg.PostID,
		ProviderMsgID: msgID,
	}
	// The message has left; a failed audit write must not trigger a resend.
	if err := s.logs.CreateSent(ctx, log); err != nil {
		s.logger.Error("failed to record sent email",
			"to", RedactEmail(to),
			"provider_message_id", msgID,
			"error", err.Error(),
		)
	}
	s.logger.Info("email sent", "to", RedactEmail(to), "email_type", string(emailType), "provider_message_id", msgID)
	return log, nil
}
