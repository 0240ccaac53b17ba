package useremail

import (
	"context"
	"fmt"

	"usermail/internal/notifications/email"
	"usermail/internal/types"
)

// SkipLogWriter appends skipped rows to email_logs.
type SkipLogWriter interface {
	CreateSkipped(ctx context.Context, emailType types.EmailType, toAddress string, userID int64, reason string) (*types.EmailLog, error)
}

// AuditLogger records skip decisions.
type AuditLogger struct {
	logs   SkipLogWriter
	logger types.Logger
}

// NewAuditLogger creates an AuditLogger.
func NewAuditLogger(logs SkipLogWriter, logger types.Logger) *AuditLogger {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &AuditLogger{logs: logs, logger: logger}
}

// Record writes exactly one skipped email_logs row. A storage failure is
// returned; the row is the only durable trace of the skip.
func (a *AuditLogger) Record(ctx context.Context, sc SkipContext, reason SkipReason) (*types.EmailLog, error) {
	log, err := a.logs.CreateSkipped(ctx, sc.Type, sc.ToAddress, sc.UserID, reason.Message)
	if err != nil {
		return nil, fmt.Errorf("record skip %s for user %d: %w", reason.Code, sc.UserID, err)
	}
	a.logger.Info("email skipped",
		"user_id", sc.UserID,
		"email_type", string(sc.Type),
		"to", email.RedactEmail(sc.ToAddress),
		"reason", string(reason.Code),
		"email_log_id", log.ID,
	)
	return log, nil
}
