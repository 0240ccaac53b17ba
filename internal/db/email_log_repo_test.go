package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"usermail/internal/types"
)

func TestEmailLogRepository_CreateSkipped(t *testing.T) {
	db := new(mockDBTX)
	repo := NewEmailLogRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	row := &mockRow{
		scanFn: func(dest ...any) error {
			*dest[0].(*int64) = 900
			*dest[1].(*time.Time) = now
			return nil
		},
	}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"),
		[]any{"user_replied", "sam@example.com", int64(42), (*int64)(nil), true, "seen recently", ""},
	).Return(row)

	log, err := repo.CreateSkipped(ctx, types.EmailUserReplied, "sam@example.com", 42, "seen recently")
	require.NoError(t, err)
	assert.Equal(t, int64(900), log.ID)
	assert.True(t, log.Skipped)
	assert.Equal(t, "seen recently", log.SkippedReason)
	assert.Equal(t, now, log.CreatedAt)
	db.AssertExpectations(t)
}

func TestEmailLogRepository_CreateSkipped_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewEmailLogRepository(db)
	ctx := context.Background()
	boom := errors.New("disk full")

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: boom})

	log, err := repo.CreateSkipped(ctx, types.EmailDigest, "no_email_found", 1, "anonymous user")
	assert.Nil(t, log)
	assert.Equal(t, types.ErrCodeInternalDB, types.CodeOf(err))
	assert.ErrorIs(t, err, boom)
}

func TestEmailLogRepository_CreateSent(t *testing.T) {
	db := new(mockDBTX)
	repo := NewEmailLogRepository(db)
	ctx := context.Background()
	postID := int64(100)

	row := &mockRow{
		scanFn: func(dest ...any) error {
			*dest[0].(*int64) = 901
			return nil
		},
	}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"),
		[]any{"user_posted", "a@example.com", int64(3), &postID, false, "", "sg-1"},
	).Return(row)

	log := &types.EmailLog{
		EmailType:     types.EmailUserPosted,
		ToAddress:     "a@example.com",
		UserID:        3,
		PostID:        &postID,
		SkippedReason: "stale",
		ProviderMsgID: "sg-1",
	}
	require.NoError(t, repo.CreateSent(ctx, log))
	assert.Equal(t, int64(901), log.ID)
	assert.False(t, log.Skipped)
	assert.Empty(t, log.SkippedReason)
}
