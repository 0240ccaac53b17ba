package email

import "usermail/internal/types"

// Args carries everything a builder may need beyond the user. Fields are
// optional; each builder checks the ones it depends on.
type Args struct {
	Post             *types.Post
	NotificationType *types.NotificationType
	NotificationData types.JSONMap
	EmailToken       string
	ToAddress        string
}

// Message is a rendered email ready for the Sender.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
	Headers map[string]string

	EmailType types.EmailType
	UserID    int64
	PostID    *int64
}

// Recipient returns the first To address, or "" when none is set.
func (m *Message) Recipient() string {
	if len(m.To) == 0 {
		return ""
	}
	return m.To[0]
}
