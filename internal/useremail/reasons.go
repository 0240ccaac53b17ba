package useremail

import "fmt"

// ReasonCode identifies why an email was skipped. Codes are stable and used
// as metric dimensions; messages are what email_logs.skipped_reason stores.
type ReasonCode string

const (
	ReasonNoUser                  ReasonCode = "no_user"
	ReasonPostNotFound            ReasonCode = "post_not_found"
	ReasonAnonymousUser           ReasonCode = "anonymous_user"
	ReasonSuspendedNotPM          ReasonCode = "suspended_not_pm"
	ReasonSeenRecently            ReasonCode = "seen_recently"
	ReasonNotificationAlreadyRead ReasonCode = "notification_already_read"
	ReasonTopicNil                ReasonCode = "topic_nil"
	ReasonPostDeleted             ReasonCode = "post_deleted"
	ReasonUserSuspended           ReasonCode = "user_suspended"
	ReasonAlreadyRead             ReasonCode = "already_read"

	// Delivery-time skips recorded by the mailer.
	ReasonNoToAddress      ReasonCode = "no_to_address"
	ReasonRecipientBlocked ReasonCode = "recipient_blocked"
)

// SkipReason is the code and human-readable message of a skip.
type SkipReason struct {
	Code    ReasonCode
	Message string
}

func (r SkipReason) String() string {
	return string(r.Code) + ": " + r.Message
}

var (
	reasonAnonymousUser           = SkipReason{ReasonAnonymousUser, "anonymous user"}
	reasonSuspendedNotPM          = SkipReason{ReasonSuspendedNotPM, "user suspended"}
	reasonSeenRecently            = SkipReason{ReasonSeenRecently, "seen recently"}
	reasonNotificationAlreadyRead = SkipReason{ReasonNotificationAlreadyRead, "notification already read"}
	reasonTopicNil                = SkipReason{ReasonTopicNil, "topic nil"}
	reasonPostDeleted             = SkipReason{ReasonPostDeleted, "post deleted"}
	reasonUserSuspended           = SkipReason{ReasonUserSuspended, "user suspended"}
	reasonAlreadyRead             = SkipReason{ReasonAlreadyRead, "already read"}
)

func reasonNoUser(userID int64) SkipReason {
	return SkipReason{ReasonNoUser, fmt.Sprintf("no user found for id %d", userID)}
}

func reasonPostNotFound(postID int64) SkipReason {
	return SkipReason{ReasonPostNotFound, fmt.Sprintf("post not found for id %d", postID)}
}
