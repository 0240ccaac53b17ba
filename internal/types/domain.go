package types

import (
	"fmt"
	"time"
)

// UserOptions holds the per-user email preferences that affect eligibility.
type UserOptions struct {
	// EmailAlways sends notification emails even while the user is active
	// on the site or has already read the content.
	EmailAlways bool `json:"email_always" db:"email_always"`
	// MailingListMode means the user already receives every post by mail,
	// so individual notification emails would be duplicates.
	MailingListMode bool `json:"mailing_list_mode" db:"mailing_list_mode"`
}

// User is the recipient of a user email.
type User struct {
	ID            int64       `json:"id" db:"id"`
	Username      string      `json:"username" db:"username"`
	Name          string      `json:"name,omitempty" db:"name"`
	Email         string      `json:"email,omitempty" db:"email"`
	Active        bool        `json:"active" db:"active"`
	Staged        bool        `json:"staged" db:"staged"`
	Admin         bool        `json:"admin" db:"admin"`
	Moderator     bool        `json:"moderator" db:"moderator"`
	Anonymous     bool        `json:"anonymous" db:"-"`
	SuspendedTill *time.Time  `json:"suspended_till,omitempty" db:"suspended_till"`
	LastSeenAt    *time.Time  `json:"last_seen_at,omitempty" db:"last_seen_at"`
	Options       UserOptions `json:"user_option" db:"-"`
}

// Suspended reports whether the suspension is still in effect at now.
func (u *User) Suspended(now time.Time) bool {
	return u.SuspendedTill != nil && u.SuspendedTill.After(now)
}

// Staff reports whether the user is an admin or moderator.
func (u *User) Staff() bool {
	return u.Admin || u.Moderator
}

// Topic is the thread a post belongs to.
type Topic struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Slug      string    `json:"slug" db:"slug"`
	Archetype Archetype `json:"archetype" db:"archetype"`
}

// PrivateMessage reports whether the topic is a private message thread.
func (t *Topic) PrivateMessage() bool {
	return t.Archetype == ArchetypePrivateMessage
}

// Post is a single post in a topic. Topic is nil when the topic has been
// deleted out from under the post.
type Post struct {
	ID          int64     `json:"id" db:"id"`
	TopicID     int64     `json:"topic_id" db:"topic_id"`
	PostNumber  int       `json:"post_number" db:"post_number"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Username    string    `json:"username" db:"-"`
	Raw         string    `json:"raw" db:"raw"`
	UserDeleted bool      `json:"user_deleted" db:"user_deleted"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// Hydrated Fields (joined, not in the posts table)
	Topic       *Topic `json:"topic,omitempty" db:"-"`
	AuthorStaff bool   `json:"-" db:"-"`
}

// URL returns the canonical path of the post under the given base URL.
func (p *Post) URL(baseURL string) string {
	slug := "topic"
	if p.Topic != nil && p.Topic.Slug != "" {
		slug = p.Topic.Slug
	}
	return fmt.Sprintf("%s/t/%s/%d/%d", baseURL, slug, p.TopicID, p.PostNumber)
}

// Notification is an in-app notification that may trigger an email.
type Notification struct {
	ID               int64            `json:"id" db:"id"`
	UserID           int64            `json:"user_id" db:"user_id"`
	NotificationType NotificationType `json:"notification_type" db:"notification_type"`
	TopicID          *int64           `json:"topic_id,omitempty" db:"topic_id"`
	PostNumber       *int             `json:"post_number,omitempty" db:"post_number"`
	Data             JSONMap          `json:"data" db:"data"`
	Read             bool             `json:"read" db:"read"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

// EmailLog is the append-only audit row written for every skipped email and
// every email handed to the provider.
type EmailLog struct {
	ID            int64     `json:"id" db:"id"`
	EmailType     EmailType `json:"email_type" db:"email_type"`
	ToAddress     string    `json:"to_address" db:"to_address"`
	UserID        int64     `json:"user_id" db:"user_id"`
	PostID        *int64    `json:"post_id,omitempty" db:"post_id"`
	Skipped       bool      `json:"skipped" db:"skipped"`
	SkippedReason string    `json:"skipped_reason,omitempty" db:"skipped_reason"`
	ProviderMsgID string    `json:"provider_message_id,omitempty" db:"provider_message_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// SendInput is the provider-neutral contract for one outbound email.
type SendInput struct {
	To       string
	From     SenderIdentity
	Subject  string
	BodyHTML string
	BodyText string
	// Headers are extra RFC 5322 headers (List-Unsubscribe, reply-by keys).
	Headers map[string]string
	// CustomArgs are echoed back by the provider in delivery events.
	CustomArgs  map[string]string
	ReferenceID string
}

// SenderIdentity defines the sender for outgoing emails.
type SenderIdentity struct {
	Name    string
	Address string
}
