package useremail

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"usermail/internal/types"
)

func TestSentByMailingList(t *testing.T) {
	want := map[types.NotificationType]bool{
		types.NotificationPosted:         true,
		types.NotificationReplied:        true,
		types.NotificationMentioned:      true,
		types.NotificationGroupMentioned: true,
		types.NotificationQuoted:         true,
	}

	for nt := types.NotificationMentioned; nt <= types.NotificationGroupMentioned; nt++ {
		assert.Equal(t, want[nt], SentByMailingList(nt), nt.String())
	}
	assert.False(t, SentByMailingList(types.NotificationType(99)))
}
