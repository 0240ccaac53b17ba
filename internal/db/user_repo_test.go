package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"usermail/internal/types"
)

func TestUserRepository_FindByID_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewUserRepository(db)
	ctx := context.Background()

	lastSeen := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	row := &mockRow{
		scanFn: func(dest ...any) error {
			*dest[0].(*int64) = 42     // id
			*dest[1].(*string) = "sam" // username
			n := "Sam Saffron"
			*dest[2].(**string) = &n // name (nullable)
			e := "sam@example.com"
			*dest[3].(**string) = &e            // email (nullable)
			*dest[4].(*bool) = true             // active
			*dest[5].(*bool) = false            // staged
			*dest[6].(*bool) = false            // admin
			*dest[7].(*bool) = true             // moderator
			*dest[8].(*bool) = false            // anonymous
			*dest[9].(**time.Time) = nil        // suspended_till
			*dest[10].(**time.Time) = &lastSeen // last_seen_at
			*dest[11].(*bool) = true            // email_always
			*dest[12].(*bool) = false           // mailing_list_mode
			return nil
		},
	}

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{int64(42)}).Return(row)

	user, err := repo.FindByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "sam", user.Username)
	assert.Equal(t, "Sam Saffron", user.Name)
	assert.Equal(t, "sam@example.com", user.Email)
	assert.True(t, user.Staff())
	assert.Nil(t, user.SuspendedTill)
	require.NotNil(t, user.LastSeenAt)
	assert.Equal(t, lastSeen, *user.LastSeenAt)
	assert.True(t, user.Options.EmailAlways)
	assert.False(t, user.Options.MailingListMode)

	db.AssertExpectations(t)
}

func TestUserRepository_FindByID_NullableColumns(t *testing.T) {
	db := new(mockDBTX)
	repo := NewUserRepository(db)
	ctx := context.Background()

	row := &mockRow{
		scanFn: func(dest ...any) error {
			*dest[0].(*int64) = 7
			*dest[1].(*string) = "staged_user"
			*dest[2].(**string) = nil
			*dest[3].(**string) = nil
			*dest[5].(*bool) = true
			return nil
		},
	}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{int64(7)}).Return(row)

	user, err := repo.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, user.Name)
	assert.Empty(t, user.Email)
	assert.True(t, user.Staged)
}

func TestUserRepository_FindByID_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewUserRepository(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{int64(999)}).
		Return(&mockRow{scanErr: pgx.ErrNoRows})

	_, err := repo.FindByID(ctx, 999)
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeNotFoundUser, types.CodeOf(err))
}

func TestUserRepository_FindByID_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewUserRepository(db)
	ctx := context.Background()
	boom := errors.New("connection reset")

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{int64(1)}).
		Return(&mockRow{scanErr: boom})

	_, err := repo.FindByID(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeInternalDB, types.CodeOf(err))
	assert.ErrorIs(t, err, boom)
}
