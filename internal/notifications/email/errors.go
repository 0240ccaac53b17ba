// Package email builds and sends the transactional messages produced by the
// user email engine. Builders turn a user plus message arguments into a
// rendered Message, the Registry maps each email type to its builder, and
// the Sender hands the result to an external EmailProvider and records the
// outcome in email_logs.
package email

import (
	"errors"

	"usermail/internal/types"
)

// ErrRecipientBlocked indicates the provider refuses to deliver to the
// recipient (suppression list, prior hard bounce). It is terminal.
var ErrRecipientBlocked = errors.New("recipient blocked by provider")

// IsBlocklistError reports whether err is ErrRecipientBlocked or an
// AppError carrying ErrCodeEmailBlocked.
func IsBlocklistError(err error) bool {
	if errors.Is(err, ErrRecipientBlocked) {
		return true
	}
	return types.CodeOf(err) == types.ErrCodeEmailBlocked
}
