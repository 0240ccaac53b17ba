package useremail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usermail/internal/notifications/email"
	"usermail/internal/types"
)

type harness struct {
	store   *store
	sender  *recordingSender
	metrics *recordingMetrics
	coord   *Coordinator
}

func newHarness(builders BuilderLookup) *harness {
	s := newStore()
	h := &harness{store: s, sender: &recordingSender{}, metrics: &recordingMetrics{}}
	h.coord = NewCoordinator(CoordinatorConfig{
		Resolver: s.resolver(),
		Policy:   newTestPolicy(builders),
		Audit:    NewAuditLogger(logRepo{s}, nil),
		Sender:   h.sender,
		Metrics:  h.metrics,
		Clock:    fixedClock{testNow},
	})
	return h
}

func TestExecute_ValidationFailsWithoutStorageAccess(t *testing.T) {
	for _, req := range []Request{{Type: types.EmailDigest}, {UserID: 7}, {}} {
		h := newHarness(allBuilders())
		_, err := h.coord.Execute(context.Background(), req)

		require.Error(t, err)
		assert.True(t, IsContractViolation(err))
		assert.Zero(t, h.store.reads, "no repository reads before validation")
		assert.Empty(t, h.store.logs)
		assert.Empty(t, h.sender.calls)
		assert.Empty(t, h.metrics.calls)
	}
}

func TestExecute_MissingUserWritesOneSkip(t *testing.T) {
	h := newHarness(allBuilders())

	res, err := h.coord.Execute(context.Background(),
		Request{UserID: 404, Type: types.EmailUserReplied, ToAddress: "x@example.com"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSkipped, res.Outcome)
	require.Len(t, h.store.logs, 1)
	log := h.store.logs[0]
	assert.True(t, log.Skipped)
	assert.Equal(t, "no user found for id 404", log.SkippedReason)
	assert.Equal(t, "x@example.com", log.ToAddress)
	assert.Equal(t, int64(404), log.UserID)
	assert.Equal(t, types.EmailUserReplied, log.EmailType)
	assert.Equal(t, log.ID, res.Log.ID)
	assert.Empty(t, h.sender.calls)
}

func TestExecute_AnonymousSkip(t *testing.T) {
	h := newHarness(allBuilders())
	u := activeUser()
	u.Anonymous = true
	h.store.users[7] = u

	res, err := h.coord.Execute(context.Background(), Request{UserID: 7, Type: types.EmailSignup, EmailToken: "t"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Equal(t, ReasonAnonymousUser, res.Reason.Code)
	require.Len(t, h.store.logs, 1)
	assert.Equal(t, "anonymous user", h.store.logs[0].SkippedReason)
	assert.Equal(t, "alice@example.com", h.store.logs[0].ToAddress)
}

func TestExecute_MailingListSuppressWritesNothing(t *testing.T) {
	h := newHarness(allBuilders())
	u := activeUser()
	u.Options.MailingListMode = true
	h.store.users[7] = u
	h.store.posts[100] = regularPost()
	replied := types.NotificationReplied

	res, err := h.coord.Execute(context.Background(), Request{
		UserID:           7,
		Type:             types.EmailUserReplied,
		PostID:           ptr(int64(100)),
		NotificationType: &replied,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuppressed, res.Outcome)
	assert.Nil(t, res.Log)
	assert.Empty(t, h.store.logs)
	assert.Empty(t, h.sender.calls)
}

func TestExecute_SkipAlwaysWritesOneRow(t *testing.T) {
	h := newHarness(allBuilders())
	u := activeUser()
	u.LastSeenAt = ptr(testNow)
	h.store.users[7] = u
	h.store.posts[100] = regularPost()

	res, err := h.coord.Execute(context.Background(),
		Request{UserID: 7, Type: types.EmailUserReplied, PostID: ptr(int64(100))})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	require.Len(t, h.store.logs, 1)
	assert.Equal(t, "seen recently", h.store.logs[0].SkippedReason)
}

func TestExecute_SendAppliesOverride(t *testing.T) {
	h := newHarness(allBuilders())
	h.store.users[7] = activeUser()
	h.store.posts[100] = regularPost()

	res, err := h.coord.Execute(context.Background(), Request{
		UserID:    7,
		Type:      types.EmailUserReplied,
		PostID:    ptr(int64(100)),
		ToAddress: "override@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSent, res.Outcome)
	require.Len(t, h.sender.calls, 1)
	assert.Equal(t, []string{"override@example.com"}, h.sender.calls[0].To)
	assert.Equal(t, int64(100), *h.sender.calls[0].PostID)
	assert.Equal(t, "msg-1", res.Log.ProviderMsgID)
	assert.Empty(t, h.store.logs, "sends are not written through the audit logger")
}

func TestExecute_BuilderWithNothingToSend(t *testing.T) {
	builders := allBuilders()
	builders[types.EmailDigest] = email.BuilderFunc(func(*types.User, email.Args) (*email.Message, error) {
		return nil, nil
	})
	h := newHarness(builders)
	h.store.users[7] = activeUser()

	res, err := h.coord.Execute(context.Background(), Request{UserID: 7, Type: types.EmailDigest})
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, res.Outcome)
	assert.Empty(t, h.sender.calls)
	assert.Empty(t, h.store.logs)
}

func TestExecute_BuilderErrorPropagates(t *testing.T) {
	builders := allBuilders()
	builders[types.EmailSignup] = email.BuilderFunc(func(*types.User, email.Args) (*email.Message, error) {
		return nil, types.InvalidParameters("email_token")
	})
	h := newHarness(builders)
	h.store.users[7] = activeUser()

	_, err := h.coord.Execute(context.Background(), Request{UserID: 7, Type: types.EmailSignup})
	assert.True(t, IsContractViolation(err))
}

func TestExecute_UnknownTypeWritesNothing(t *testing.T) {
	h := newHarness(allBuilders())
	h.store.users[7] = activeUser()

	_, err := h.coord.Execute(context.Background(), Request{UserID: 7, Type: "user_watching"})
	require.Error(t, err)
	assert.True(t, IsContractViolation(err))
	assert.Empty(t, h.store.logs)
}

func TestExecute_InfrastructureErrorsAreNeverSkips(t *testing.T) {
	t.Run("resolver", func(t *testing.T) {
		h := newHarness(allBuilders())
		h.store.userErr = context.DeadlineExceeded

		_, err := h.coord.Execute(context.Background(), Request{UserID: 7, Type: types.EmailDigest})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.False(t, IsContractViolation(err))
		assert.Empty(t, h.store.logs)
	})

	t.Run("audit write", func(t *testing.T) {
		h := newHarness(allBuilders())
		dbErr := types.NewAppError(types.ErrCodeInternalDB, "insert failed", nil)
		h.store.logErr = dbErr

		_, err := h.coord.Execute(context.Background(), Request{UserID: 404, Type: types.EmailDigest})
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("sender", func(t *testing.T) {
		h := newHarness(allBuilders())
		h.store.users[7] = activeUser()
		h.sender.err = types.NewAppError(types.ErrCodeUpstreamUnavailable, "down", nil)

		_, err := h.coord.Execute(context.Background(), Request{UserID: 7, Type: types.EmailSignup})
		assert.Equal(t, types.ErrCodeUpstreamUnavailable, types.CodeOf(err))
		assert.Empty(t, h.store.logs)
		assert.Empty(t, h.metrics.calls)
	})
}

func TestExecute_DeliverySkipFromSender(t *testing.T) {
	h := newHarness(allBuilders())
	h.store.users[7] = activeUser()
	h.sender.log = &types.EmailLog{ID: 5, Skipped: true, SkippedReason: email.ReasonRecipientBlocked}

	res, err := h.coord.Execute(context.Background(), Request{UserID: 7, Type: types.EmailSignup})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Equal(t, ReasonRecipientBlocked, res.Reason.Code)
}

func TestExecute_Idempotent(t *testing.T) {
	h := newHarness(allBuilders())
	h.store.users[7] = activeUser()
	post := regularPost()
	h.store.posts[100] = post
	h.store.markRead(post, 7)
	req := Request{UserID: 7, Type: types.EmailUserPosted, PostID: ptr(int64(100))}

	first, err := h.coord.Execute(context.Background(), req)
	require.NoError(t, err)
	second, err := h.coord.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Outcome, second.Outcome)
	assert.Equal(t, *first.Reason, *second.Reason)
	assert.Equal(t, ReasonAlreadyRead, first.Reason.Code)
	assert.Len(t, h.store.logs, 2, "each skip evaluation writes its own row")
}

func TestExecute_RecordsMetrics(t *testing.T) {
	h := newHarness(allBuilders())
	h.store.users[7] = activeUser()

	_, err := h.coord.Execute(context.Background(), Request{UserID: 7, Type: types.EmailSignup})
	require.NoError(t, err)
	_, err = h.coord.Execute(context.Background(), Request{UserID: 404, Type: types.EmailSignup})
	require.NoError(t, err)

	require.Len(t, h.metrics.calls, 2)
	assert.Equal(t, decisionCall{types.EmailSignup, "sent", ""}, h.metrics.calls[0])
	assert.Equal(t, decisionCall{types.EmailSignup, "skipped", "no_user"}, h.metrics.calls[1])
}

func TestExecute_ConcurrentEvaluations(t *testing.T) {
	h := newHarness(allBuilders())
	h.store.users[7] = activeUser()

	done := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func(i int) {
			req := Request{UserID: 7, Type: types.EmailSignup}
			if i%2 == 1 {
				req.UserID = 404
			}
			_, err := h.coord.Execute(context.Background(), req)
			done <- err
		}(i)
	}
	for i := 0; i < 20; i++ {
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out")
		}
	}
	assert.Len(t, h.store.logs, 10)
	assert.Len(t, h.sender.calls, 10)
}
