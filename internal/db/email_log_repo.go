package db

import (
	"context"

	"usermail/internal/types"
)

// EmailLogRepository appends rows to the email_logs audit table. Rows are
// never updated or deleted here.
type EmailLogRepository struct {
	db DBTX
}

// NewEmailLogRepository creates a new EmailLogRepository.
func NewEmailLogRepository(db DBTX) *EmailLogRepository {
	return &EmailLogRepository{db: db}
}

// CreateSkipped records a skipped email and returns the stored row.
func (r *EmailLogRepository) CreateSkipped(ctx context.Context, emailType types.EmailType, toAddress string, userID int64, reason string) (*types.EmailLog, error) {
	log := &types.EmailLog{
		EmailType:     emailType,
		ToAddress:     toAddress,
		UserID:        userID,
		Skipped:       true,
		SkippedReason: reason,
	}
	if err := r.insert(ctx, log); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to create skipped email log", err)
	}
	return log, nil
}

// CreateSent records an email accepted by the provider. log.ID and
// log.CreatedAt are populated from the inserted row.
func (r *EmailLogRepository) CreateSent(ctx context.Context, log *types.EmailLog) error {
	log.Skipped = false
	log.SkippedReason = ""
	if err := r.insert(ctx, log); err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create email log", err)
	}
	return nil
}

func (r *EmailLogRepository) insert(ctx context.Context, log *types.EmailLog) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO email_logs
		 (email_type, to_address, user_id, post_id, skipped, skipped_reason, provider_message_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NOW())
		 RETURNING id, created_at`,
		string(log.EmailType),
		log.ToAddress,
		log.UserID,
		log.PostID,
		log.Skipped,
		log.SkippedReason,
		log.ProviderMsgID,
	).Scan(&log.ID, &log.CreatedAt)
}
