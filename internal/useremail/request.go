// Package useremail decides whether a user email should be sent. A request
// is validated, its entities are resolved, an ordered set of eligibility
// rules produces a Decision, and the Coordinator either hands a built
// message to the mailer, records a skip in email_logs, or drops the request
// silently.
package useremail

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"usermail/internal/types"
)

// Request is one user email evaluation. It is immutable once built.
type Request struct {
	UserID int64           `json:"user_id" validate:"required"`
	Type   types.EmailType `json:"type" validate:"required"`

	PostID           *int64                  `json:"post_id,omitempty"`
	NotificationID   *int64                  `json:"notification_id,omitempty"`
	NotificationType *types.NotificationType `json:"notification_type,omitempty"`
	NotificationData types.JSONMap           `json:"notification_data,omitempty"`
	EmailToken       string                  `json:"email_token,omitempty"`
	ToAddress        string                  `json:"to_address,omitempty"`
}

// RequestFromMessage maps the queue envelope to a Request.
func RequestFromMessage(m types.UserEmailMessage) Request {
	return Request{
		UserID:           m.UserID,
		Type:             m.Type,
		PostID:           m.PostID,
		NotificationID:   m.NotificationID,
		NotificationType: m.NotificationType,
		NotificationData: m.NotificationData,
		EmailToken:       m.EmailToken,
		ToAddress:        strings.TrimSpace(m.ToAddress),
	}
}

// activityDriven reports whether the request concerns a post or a
// notification rather than being a direct system email.
func (r Request) activityDriven(rc ResolvedContext) bool {
	return rc.Post != nil || r.notificationDriven(rc)
}

func (r Request) notificationDriven(rc ResolvedContext) bool {
	return rc.Notification != nil || r.NotificationType != nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate fails with InvalidParameters naming the first missing field.
// user_id is checked before type.
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return types.InvalidParameters(verrs[0].Field())
	}
	return types.NewAppError(types.ErrCodeValidationPayload, "request validation failed", err)
}

// IsContractViolation reports whether err is a malformed-request error rather
// than an infrastructure failure. Contract violations are never retried.
func IsContractViolation(err error) bool {
	return types.CodeOf(err).IsValidation()
}

var _ types.Validator = Request{}
