package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"usermail/internal/types"
)

// UserRepository provides read access to users joined with their primary
// email address and email options.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository backed by the given
// database connection (pool or transaction).
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// userColumns must stay in the order scanUser expects.
const userColumns = `u.id, u.username, u.name, ue.email, u.active, u.staged, u.admin, u.moderator,
	EXISTS (SELECT 1 FROM anonymous_users au WHERE au.user_id = u.id),
	u.suspended_till, u.last_seen_at,
	COALESCE(uo.email_always, FALSE), COALESCE(uo.mailing_list_mode, FALSE)`

const userFrom = `FROM users u
	LEFT JOIN user_emails ue ON ue.user_id = u.id AND ue.is_primary
	LEFT JOIN user_options uo ON uo.user_id = u.id`

// scanUser scans a single user row. name and email are nullable: staged
// users may have no display name and a user may have no primary address.
func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	var (
		name  *string
		email *string
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&name,
		&email,
		&u.Active,
		&u.Staged,
		&u.Admin,
		&u.Moderator,
		&u.Anonymous,
		&u.SuspendedTill,
		&u.LastSeenAt,
		&u.Options.EmailAlways,
		&u.Options.MailingListMode,
	)
	if err != nil {
		return nil, err
	}
	if name != nil {
		u.Name = *name
	}
	if email != nil {
		u.Email = *email
	}
	return &u, nil
}

// FindByID retrieves a user by id.
// Returns an AppError with ErrCodeNotFoundUser if no user exists.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*types.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` `+userFrom+` WHERE u.id = $1`,
		id,
	)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve user", err)
	}
	return u, nil
}
