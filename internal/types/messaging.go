package types

// UserEmailMessage is the SQS payload that requests one user email. It is the
// transport envelope for a single eligibility evaluation; producers set only
// the fields relevant to the email type. JSON tags use snake_case.
type UserEmailMessage struct {
	// Required
	UserID int64     `json:"user_id"`
	Type   EmailType `json:"type"`

	// Optional entity references
	PostID         *int64 `json:"post_id,omitempty"`
	NotificationID *int64 `json:"notification_id,omitempty"`

	// Optional overrides of the notification's own type and data.
	NotificationType *NotificationType `json:"notification_type,omitempty"`
	NotificationData JSONMap           `json:"notification_data,omitempty"`

	// EmailToken is the one-time token embedded in signup/reset/login emails.
	EmailToken string `json:"email_token,omitempty"`
	// ToAddress overrides the user's stored address.
	ToAddress string `json:"to_address,omitempty"`

	// Observability
	TraceID string `json:"trace_id,omitempty"`
}

// SQS message attribute names used by producers and consumers.
const (
	AttrContentEncoding = "content_encoding"
	AttrEmailType       = "email_type"

	// ContentEncodingZstd marks a body that is zstd-compressed then base64 encoded.
	ContentEncodingZstd = "zstd"
)
