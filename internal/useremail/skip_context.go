package useremail

import (
	"usermail/internal/notifications/email"
	"usermail/internal/types"
)

// NoEmailFound is recorded as the address when neither an override nor a
// stored address is available.
const NoEmailFound = email.NoEmailFound

// SkipContext is what a skip record is written with. One value is built per
// evaluation, before the first rule that can skip, and passed by value.
type SkipContext struct {
	Type      types.EmailType
	UserID    int64
	ToAddress string
}

// newSkipContext picks the address as override, then the user's stored
// address, then NoEmailFound. user may be nil.
func newSkipContext(req Request, user *types.User) SkipContext {
	to := req.ToAddress
	if to == "" && user != nil {
		to = user.Email
	}
	if to == "" {
		to = NoEmailFound
	}
	return SkipContext{Type: req.Type, UserID: req.UserID, ToAddress: to}
}
