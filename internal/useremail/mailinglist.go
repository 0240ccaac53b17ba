package useremail

import "usermail/internal/types"

// mailingListTypes are the notification types already delivered to
// mailing-list-mode users by the mailing list job.
var mailingListTypes = map[types.NotificationType]struct{}{
	types.NotificationPosted:         {},
	types.NotificationReplied:        {},
	types.NotificationMentioned:      {},
	types.NotificationGroupMentioned: {},
	types.NotificationQuoted:         {},
}

// SentByMailingList reports whether t is covered by mailing list delivery.
func SentByMailingList(t types.NotificationType) bool {
	_, ok := mailingListTypes[t]
	return ok
}
