package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"usermail/internal/types"
)

// NotificationRepository provides read access to the notifications table.
type NotificationRepository struct {
	db DBTX
}

// NewNotificationRepository creates a new NotificationRepository backed by the
// given database connection (pool or transaction).
func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// FindByID retrieves a notification by id.
// Returns an AppError with ErrCodeNotFoundNotification if no row exists.
func (r *NotificationRepository) FindByID(ctx context.Context, id int64) (*types.Notification, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, user_id, notification_type, topic_id, post_number, data, read, created_at
		 FROM notifications
		 WHERE id = $1`,
		id,
	)

	var n types.Notification
	var notifType int
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&notifType,
		&n.TopicID,
		&n.PostNumber,
		&n.Data,
		&n.Read,
		&n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundNotification, "notification not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve notification", err)
	}
	n.NotificationType = types.NotificationType(notifType)
	return &n, nil
}
