package email

import (
	"context"
	"sync"
	"testing"
	"time"

	"usermail/internal/types"
)

var testSite = Site{Name: "Forum", BaseURL: "https://forum.test"}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error: %v", err)
	}
	return r
}

func testUser() *types.User {
	return &types.User{ID: 7, Username: "alice", Email: "alice@example.com", Active: true}
}

func testPost() *types.Post {
	return &types.Post{
		ID:         100,
		TopicID:    42,
		PostNumber: 3,
		UserID:     9,
		Username:   "bob",
		Raw:        "Thanks for the   detailed\nanswer, that fixed it.",
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Topic:      &types.Topic{ID: 42, Title: "Welcome aboard", Slug: "welcome-aboard", Archetype: types.ArchetypeRegular},
	}
}

// fakeLogs records email_logs writes in memory.
type fakeLogs struct {
	mu      sync.Mutex
	sent    []types.EmailLog
	skipped []types.EmailLog
	sentErr error
}

func (f *fakeLogs) CreateSent(_ context.Context, log *types.EmailLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sentErr != nil {
		return f.sentErr
	}
	log.ID = int64(len(f.sent) + 1)
	f.sent = append(f.sent, *log)
	return nil
}

func (f *fakeLogs) CreateSkipped(_ context.Context, emailType types.EmailType, to string, userID int64, reason string) (*types.EmailLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	log := types.EmailLog{
		ID:            int64(len(f.skipped) + 1),
		EmailType:     emailType,
		ToAddress:     to,
		UserID:        userID,
		Skipped:       true,
		SkippedReason: reason,
	}
	f.skipped = append(f.skipped, log)
	return &log, nil
}

// failingProvider returns err from every Send.
type failingProvider struct {
	err error
}

func (p failingProvider) Send(context.Context, types.SendInput) (string, error) {
	return "", p.err
}
