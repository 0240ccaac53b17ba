package db

import (
	"context"

	"usermail/internal/types"
)

// ReadStateRepository answers whether a user has already consumed a post.
type ReadStateRepository struct {
	db DBTX
}

// NewReadStateRepository creates a new ReadStateRepository.
func NewReadStateRepository(db DBTX) *ReadStateRepository {
	return &ReadStateRepository{db: db}
}

// PostTimingExists reports whether a read-timing row exists for the exact
// topic, post number and user triple.
func (r *ReadStateRepository) PostTimingExists(ctx context.Context, topicID int64, postNumber int, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM post_timings
		   WHERE topic_id = $1 AND post_number = $2 AND user_id = $3
		 )`,
		topicID, postNumber, userID,
	).Scan(&exists)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to check post timing", err)
	}
	return exists, nil
}
