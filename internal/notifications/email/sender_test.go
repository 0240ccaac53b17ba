package email

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"usermail/internal/external"
	"usermail/internal/types"
)

func testMessage() *Message {
	postID := int64(100)
	return &Message{
		To:        []string{"alice@example.com"},
		Subject:   "[Forum] Welcome aboard",
		HTML:      "<p>hi</p>",
		Text:      "hi",
		Headers:   map[string]string{"X-Auto-Response-Suppress": "All"},
		EmailType: types.EmailUserReplied,
		UserID:    7,
		PostID:    &postID,
	}
}

func TestSenderSend_Success(t *testing.T) {
	stub := external.NewStubEmailProvider(nil)
	logs := &fakeLogs{}
	s := NewSender(SenderConfig{
		Provider: stub,
		Logs:     logs,
		From:     types.SenderIdentity{Name: "Forum", Address: "noreply@forum.test"},
	})

	log, err := s.Send(context.Background(), testMessage(), types.EmailUserReplied, testUser())
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if log.Skipped || log.ProviderMsgID == "" || log.ToAddress != "alice@example.com" {
		t.Errorf("log = %+v", log)
	}
	if len(logs.sent) != 1 || len(logs.skipped) != 0 {
		t.Fatalf("sent=%d skipped=%d, want 1/0", len(logs.sent), len(logs.skipped))
	}

	sent := stub.Sent()
	if len(sent) != 1 {
		t.Fatalf("provider received %d messages", len(sent))
	}
	in := sent[0]
	if in.From.Address != "noreply@forum.test" || in.Subject != "[Forum] Welcome aboard" {
		t.Errorf("input = %+v", in)
	}
	if in.CustomArgs["post_id"] != "100" || in.CustomArgs["email_type"] != "user_replied" || in.CustomArgs["user_id"] != "7" {
		t.Errorf("custom args = %v", in.CustomArgs)
	}
	if in.ReferenceID == "" {
		t.Error("reference id should be set")
	}
}

func TestSenderSend_NoRecipient(t *testing.T) {
	stub := external.NewStubEmailProvider(nil)
	logs := &fakeLogs{}
	s := NewSender(SenderConfig{Provider: stub, Logs: logs})

	msg := testMessage()
	msg.To = nil
	log, err := s.Send(context.Background(), msg, types.EmailUserReplied, testUser())
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if !log.Skipped || log.SkippedReason != ReasonNoToAddress {
		t.Errorf("log = %+v", log)
	}
	if log.ToAddress != NoEmailFound {
		t.Errorf("ToAddress = %q, want %q", log.ToAddress, NoEmailFound)
	}
	if len(stub.Sent()) != 0 {
		t.Error("provider should not be called")
	}
}

func TestSenderSend_Blocked(t *testing.T) {
	logs := &fakeLogs{}
	s := NewSender(SenderConfig{
		Provider: failingProvider{err: ErrRecipientBlocked},
		Logs:     logs,
	})

	log, err := s.Send(context.Background(), testMessage(), types.EmailUserReplied, testUser())
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if !log.Skipped || log.SkippedReason != ReasonRecipientBlocked {
		t.Errorf("log = %+v", log)
	}
}

func TestSenderSend_SendGridForbiddenPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":[{"message":"The from address does not match a verified Sender Identity."}]}`))
	}))
	defer server.Close()

	provider := external.NewSendGridClient(&http.Client{Timeout: 5 * time.Second}, external.SendGridClientConfig{
		APIKey:  "SG.test_api_key",
		BaseURL: server.URL,
	})
	logs := &fakeLogs{}
	s := NewSender(SenderConfig{Provider: provider, Logs: logs})

	log, err := s.Send(context.Background(), testMessage(), types.EmailUserReplied, testUser())
	if err == nil {
		t.Fatalf("expected error, got log %+v", log)
	}
	if IsBlocklistError(err) {
		t.Errorf("403 must not be classified as a blocked recipient: %v", err)
	}
	if got := types.CodeOf(err); got != types.ErrCodeUpstreamEmailProvider {
		t.Errorf("code = %q, want %q", got, types.ErrCodeUpstreamEmailProvider)
	}
	if len(logs.skipped) != 0 || len(logs.sent) != 0 {
		t.Errorf("sent=%d skipped=%d, want 0/0", len(logs.sent), len(logs.skipped))
	}
}

func TestSenderSend_ProviderFailurePropagates(t *testing.T) {
	logs := &fakeLogs{}
	upstream := types.NewAppError(types.ErrCodeUpstreamUnavailable, "down", nil)
	s := NewSender(SenderConfig{Provider: failingProvider{err: upstream}, Logs: logs})

	_, err := s.Send(context.Background(), testMessage(), types.EmailUserReplied, testUser())
	if !errors.Is(err, upstream) {
		t.Fatalf("err = %v, want upstream error", err)
	}
	if len(logs.sent)+len(logs.skipped) != 0 {
		t.Error("no log row should be written on a retryable failure")
	}
}

func TestSenderSend_AuditFailureDoesNotFail(t *testing.T) {
	logs := &fakeLogs{sentErr: errors.New("db down")}
	s := NewSender(SenderConfig{Provider: external.NewStubEmailProvider(nil), Logs: logs})

	log, err := s.Send(context.Background(), testMessage(), types.EmailUserReplied, testUser())
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if log.ProviderMsgID == "" {
		t.Error("log should carry the provider message id")
	}
}
