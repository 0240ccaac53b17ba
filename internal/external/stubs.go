package external

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"usermail/internal/types"
)

// StubEmailProvider implements EmailProvider by logging and recording calls.
// Used for APP_ENV=local and EMAIL_PROVIDER=stub.
type StubEmailProvider struct {
	logger types.Logger

	mu   sync.Mutex
	sent []types.SendInput
}

// NewStubEmailProvider creates a new StubEmailProvider.
func NewStubEmailProvider(logger types.Logger) *StubEmailProvider {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &StubEmailProvider{logger: logger}
}

func (s *StubEmailProvider) Send(ctx context.Context, input types.SendInput) (string, error) {
	s.mu.Lock()
	s.sent = append(s.sent, input)
	s.mu.Unlock()

	domain := ""
	if at := strings.LastIndexByte(input.To, '@'); at >= 0 {
		domain = input.To[at+1:]
	}
	s.logger.Info("stub: email send",
		"to_domain", domain,
		"subject", input.Subject,
		"reference_id", input.ReferenceID,
	)
	return "stub-" + uuid.NewString(), nil
}

// Sent returns a copy of every input passed to Send.
func (s *StubEmailProvider) Sent() []types.SendInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.SendInput, len(s.sent))
	copy(out, s.sent)
	return out
}

var _ EmailProvider = (*StubEmailProvider)(nil)
