package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// EmailType is the template tag carried by a user email request. It selects
// the message builder and drives several eligibility rules.
type EmailType string

const (
	EmailUserPrivateMessage          EmailType = "user_private_message"
	EmailUserReplied                 EmailType = "user_replied"
	EmailUserMentioned               EmailType = "user_mentioned"
	EmailUserGroupMentioned          EmailType = "user_group_mentioned"
	EmailUserQuoted                  EmailType = "user_quoted"
	EmailUserPosted                  EmailType = "user_posted"
	EmailUserLinked                  EmailType = "user_linked"
	EmailUserInvitedToPrivateMessage EmailType = "user_invited_to_private_message"
	EmailUserInvitedToTopic          EmailType = "user_invited_to_topic"
	EmailDigest                      EmailType = "digest"
	EmailSignup                      EmailType = "signup"
	EmailForgotPassword              EmailType = "forgot_password"
	EmailAuthorizeEmail              EmailType = "authorize_email"
	EmailAdminLogin                  EmailType = "admin_login"
	EmailAccountCreated              EmailType = "account_created"
)

// NotificationType is the closed set of notification subtypes. Values match
// the numbering persisted in the notifications table.
type NotificationType int

const (
	NotificationMentioned               NotificationType = 1
	NotificationReplied                 NotificationType = 2
	NotificationQuoted                  NotificationType = 3
	NotificationEdited                  NotificationType = 4
	NotificationLiked                   NotificationType = 5
	NotificationPrivateMessage          NotificationType = 6
	NotificationInvitedToPrivateMessage NotificationType = 7
	NotificationInviteeAccepted         NotificationType = 8
	NotificationPosted                  NotificationType = 9
	NotificationMovedPost               NotificationType = 10
	NotificationLinked                  NotificationType = 11
	NotificationGrantedBadge            NotificationType = 12
	NotificationInvitedToTopic          NotificationType = 13
	NotificationCustom                  NotificationType = 14
	NotificationGroupMentioned          NotificationType = 15
)

var notificationTypeNames = map[NotificationType]string{
	NotificationMentioned:               "mentioned",
	NotificationReplied:                 "replied",
	NotificationQuoted:                  "quoted",
	NotificationEdited:                  "edited",
	NotificationLiked:                   "liked",
	NotificationPrivateMessage:          "private_message",
	NotificationInvitedToPrivateMessage: "invited_to_private_message",
	NotificationInviteeAccepted:         "invitee_accepted",
	NotificationPosted:                  "posted",
	NotificationMovedPost:               "moved_post",
	NotificationLinked:                  "linked",
	NotificationGrantedBadge:            "granted_badge",
	NotificationInvitedToTopic:          "invited_to_topic",
	NotificationCustom:                  "custom",
	NotificationGroupMentioned:          "group_mentioned",
}

var notificationTypesByName = func() map[string]NotificationType {
	m := make(map[string]NotificationType, len(notificationTypeNames))
	for t, name := range notificationTypeNames {
		m[name] = t
	}
	return m
}()

// String returns the symbolic name, or the number for unknown values.
func (t NotificationType) String() string {
	if name, ok := notificationTypeNames[t]; ok {
		return name
	}
	return strconv.Itoa(int(t))
}

// Valid reports whether t is a member of the closed set.
func (t NotificationType) Valid() bool {
	_, ok := notificationTypeNames[t]
	return ok
}

// ParseNotificationType accepts either the symbolic name or the number.
func ParseNotificationType(s string) (NotificationType, error) {
	if t, ok := notificationTypesByName[s]; ok {
		return t, nil
	}
	n, err := strconv.Atoi(s)
	if err == nil && NotificationType(n).Valid() {
		return NotificationType(n), nil
	}
	return 0, fmt.Errorf("unknown notification type %q", s)
}

// UnmarshalJSON accepts both the numeric and the symbolic encodings so that
// producers may send either.
func (t *NotificationType) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*t = NotificationType(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("notification type: %w", err)
	}
	parsed, err := ParseNotificationType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Archetype distinguishes regular topics from private message threads.
type Archetype string

const (
	ArchetypeRegular        Archetype = "regular"
	ArchetypePrivateMessage Archetype = "private_message"
)
