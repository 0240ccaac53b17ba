package useremail

import (
	"context"
	"fmt"
	"sync"
	"time"

	"usermail/internal/notifications/email"
	"usermail/internal/types"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func ptr[T any](v T) *T { return &v }

func activeUser() *types.User {
	return &types.User{
		ID:         7,
		Username:   "alice",
		Email:      "alice@example.com",
		Active:     true,
		LastSeenAt: ptr(testNow.Add(-2 * time.Hour)),
	}
}

func regularPost() *types.Post {
	return &types.Post{
		ID:         100,
		TopicID:    42,
		PostNumber: 3,
		UserID:     9,
		Username:   "bob",
		Raw:        "hello",
		Topic:      &types.Topic{ID: 42, Title: "Welcome", Slug: "welcome", Archetype: types.ArchetypeRegular},
	}
}

func pmPost() *types.Post {
	p := regularPost()
	p.Topic.Archetype = types.ArchetypePrivateMessage
	return p
}

// store is an in-memory stand-in for every repository the engine reads and
// the email_logs table it writes.
type store struct {
	mu sync.Mutex

	users         map[int64]*types.User
	posts         map[int64]*types.Post
	notifications map[int64]*types.Notification
	timings       map[string]bool

	userErr    error
	postErr    error
	notifErr   error
	timingErr  error
	logErr     error
	reads      int
	timingHits int

	logs []types.EmailLog
}

func newStore() *store {
	return &store{
		users:         map[int64]*types.User{},
		posts:         map[int64]*types.Post{},
		notifications: map[int64]*types.Notification{},
		timings:       map[string]bool{},
	}
}

func timingKey(topicID int64, postNumber int, userID int64) string {
	return fmt.Sprintf("%d/%d/%d", topicID, postNumber, userID)
}

func (s *store) markRead(p *types.Post, userID int64) {
	s.timings[timingKey(p.TopicID, p.PostNumber, userID)] = true
}

type userRepo struct{ *store }

func (r userRepo) FindByID(_ context.Context, id int64) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.userErr != nil {
		return nil, r.userErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
	}
	return u, nil
}

type postRepo struct{ *store }

func (r postRepo) FindByID(_ context.Context, id int64) (*types.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.postErr != nil {
		return nil, r.postErr
	}
	p, ok := r.posts[id]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeNotFoundPost, "post not found", nil)
	}
	return p, nil
}

type notificationRepo struct{ *store }

func (r notificationRepo) FindByID(_ context.Context, id int64) (*types.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.notifErr != nil {
		return nil, r.notifErr
	}
	n, ok := r.notifications[id]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeNotFoundNotification, "notification not found", nil)
	}
	return n, nil
}

type readStateRepo struct{ *store }

func (r readStateRepo) PostTimingExists(_ context.Context, topicID int64, postNumber int, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timingHits++
	if r.timingErr != nil {
		return false, r.timingErr
	}
	return r.timings[timingKey(topicID, postNumber, userID)], nil
}

type logRepo struct{ *store }

func (r logRepo) CreateSkipped(_ context.Context, emailType types.EmailType, to string, userID int64, reason string) (*types.EmailLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.logErr != nil {
		return nil, r.logErr
	}
	log := types.EmailLog{
		ID:            int64(len(r.logs) + 1),
		EmailType:     emailType,
		ToAddress:     to,
		UserID:        userID,
		Skipped:       true,
		SkippedReason: reason,
		CreatedAt:     testNow,
	}
	r.logs = append(r.logs, log)
	return &log, nil
}

func (s *store) resolver() *Resolver {
	return NewResolver(userRepo{s}, postRepo{s}, notificationRepo{s}, readStateRepo{s})
}

// staticBuilders is a BuilderLookup backed by a plain map.
type staticBuilders map[types.EmailType]email.Builder

func (b staticBuilders) Lookup(t types.EmailType) (email.Builder, bool) {
	builder, ok := b[t]
	return builder, ok
}

func echoBuilder(t types.EmailType) email.Builder {
	return email.BuilderFunc(func(user *types.User, args email.Args) (*email.Message, error) {
		msg := &email.Message{
			To:        []string{user.Email},
			Subject:   "subject " + string(t),
			EmailType: t,
			UserID:    user.ID,
		}
		if args.Post != nil {
			msg.PostID = ptr(args.Post.ID)
		}
		return msg, nil
	})
}

func allBuilders() staticBuilders {
	b := staticBuilders{}
	for _, t := range []types.EmailType{
		types.EmailUserPrivateMessage, types.EmailUserReplied, types.EmailUserMentioned,
		types.EmailUserGroupMentioned, types.EmailUserQuoted, types.EmailUserPosted,
		types.EmailUserLinked, types.EmailUserInvitedToPrivateMessage, types.EmailUserInvitedToTopic,
		types.EmailDigest, types.EmailSignup, types.EmailForgotPassword,
		types.EmailAuthorizeEmail, types.EmailAdminLogin, types.EmailAccountCreated,
	} {
		b[t] = echoBuilder(t)
	}
	return b
}

func newTestPolicy(builders BuilderLookup) *Policy {
	return NewPolicy(10*time.Minute, builders, fixedClock{testNow})
}

// recordingSender captures Send calls and returns a sent log.
type recordingSender struct {
	mu    sync.Mutex
	calls []*email.Message
	err   error
	log   *types.EmailLog
}

func (s *recordingSender) Send(_ context.Context, msg *email.Message, emailType types.EmailType, user *types.User) (*types.EmailLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, msg)
	if s.err != nil {
		return nil, s.err
	}
	if s.log != nil {
		return s.log, nil
	}
	return &types.EmailLog{
		ID:            99,
		EmailType:     emailType,
		ToAddress:     msg.Recipient(),
		UserID:        user.ID,
		PostID:        msg.PostID,
		ProviderMsgID: "msg-1",
	}, nil
}

type decisionCall struct {
	emailType types.EmailType
	outcome   string
	reason    string
}

type recordingMetrics struct {
	mu    sync.Mutex
	calls []decisionCall
}

func (m *recordingMetrics) RecordDecision(_ context.Context, emailType types.EmailType, outcome, reason string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, decisionCall{emailType, outcome, reason})
}
