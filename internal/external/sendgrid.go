package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"usermail/internal/types"
)

const sendGridAPIBase = "https://api.sendgrid.com"

// SendGridClientConfig holds the configuration for creating a SendGridClient.
type SendGridClientConfig struct {
	APIKey  types.SecretString
	BaseURL string // defaults to sendGridAPIBase
	Logger  types.Logger
}

// SendGridClient implements EmailProvider against the SendGrid v3 Mail Send
// API. Content is rendered locally and sent inline.
type SendGridClient struct {
	base    *BaseClient
	apiKey  types.SecretString
	baseURL string
	logger  types.Logger
}

// NewSendGridClient creates a SendGridClient with the default retry policy.
func NewSendGridClient(httpClient *http.Client, cfg SendGridClientConfig) *SendGridClient {
	base := NewBaseClient(httpClient, ProviderSendGrid, DefaultRetryPolicy(), "usermail/1.0",
		WithSleepFunc(time.Sleep))
	return NewSendGridClientWithBase(base, cfg)
}

// NewSendGridClientWithBase creates a SendGridClient over a caller-built
// BaseClient, which lets tests disable retries.
func NewSendGridClientWithBase(base *BaseClient, cfg SendGridClientConfig) *SendGridClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = sendGridAPIBase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &SendGridClient{
		base:    base,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// Send posts one message to /v3/mail/send and returns the X-Message-Id
// header from the 202 response.
//
// Error mapping:
//   - 429 and 5xx -> retried by BaseClient, then upstream codes
//   - other 4xx, including 403 -> types.ErrCodeUpstreamEmailProvider
//
// SendGrid answers 403 for key scope and sender identity problems, not for
// suppressed recipients, so it is never reported as a blocked recipient.
func (s *SendGridClient) Send(ctx context.Context, input types.SendInput) (string, error) {
	body, err := json.Marshal(buildMailPayload(input))
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to marshal SendGrid payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create SendGrid request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey.Unmask())

	resp, err := s.base.Do(req)
	if err != nil {
		var appErr *types.AppError
		if errors.As(err, &appErr) {
			return "", err
		}
		return "", types.NewAppError(types.ErrCodeUpstreamEmailProvider, "SendGrid request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		msgID := resp.Header.Get("X-Message-Id")
		s.logger.Info("sendgrid accepted message", "provider_message_id", msgID)
		return msgID, nil
	}
	return "", s.handleErrorResponse(resp)
}

type sendGridMailPayload struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
	Headers          map[string]string         `json:"headers,omitempty"`
	CustomArgs       map[string]string         `json:"custom_args,omitempty"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// buildMailPayload maps a SendInput to the v3 body. SendGrid requires
// text/plain to precede text/html when both are present.
func buildMailPayload(input types.SendInput) sendGridMailPayload {
	payload := sendGridMailPayload{
		Personalizations: []sendGridPersonalization{{To: []sendGridAddress{{Email: input.To}}}},
		From:             sendGridAddress{Email: input.From.Address, Name: input.From.Name},
		Subject:          input.Subject,
		Headers:          input.Headers,
	}
	if input.BodyText != "" {
		payload.Content = append(payload.Content, sendGridContent{Type: "text/plain", Value: input.BodyText})
	}
	if input.BodyHTML != "" {
		payload.Content = append(payload.Content, sendGridContent{Type: "text/html", Value: input.BodyHTML})
	}

	if len(input.CustomArgs) > 0 || input.ReferenceID != "" {
		payload.CustomArgs = make(map[string]string, len(input.CustomArgs)+1)
		for k, v := range input.CustomArgs {
			payload.CustomArgs[k] = v
		}
		if input.ReferenceID != "" {
			payload.CustomArgs["reference_id"] = input.ReferenceID
		}
	}
	return payload
}

type sendGridErrorResponse struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

func (s *SendGridClient) handleErrorResponse(resp *http.Response) error {
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return types.NewAppError(types.ErrCodeUpstreamEmailProvider,
			fmt.Sprintf("SendGrid returned status %d with unreadable body", resp.StatusCode), readErr)
	}

	msg := string(body)
	var sgErr sendGridErrorResponse
	if err := json.Unmarshal(body, &sgErr); err == nil && len(sgErr.Errors) > 0 {
		msg = sgErr.Errors[0].Message
	}

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return types.NewAppError(types.ErrCodeUpstreamEmailProvider, "SendGrid rejected credentials or sender: "+msg, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return types.NewAppError(types.ErrCodeUpstreamRateLimited, "SendGrid rate limit exceeded", nil)
	case resp.StatusCode >= 500:
		return types.NewAppError(types.ErrCodeUpstreamUnavailable, "SendGrid server error: "+msg, nil)
	default:
		return types.NewAppError(types.ErrCodeUpstreamEmailProvider,
			fmt.Sprintf("SendGrid error (%d): %s", resp.StatusCode, msg), nil)
	}
}

var _ EmailProvider = (*SendGridClient)(nil)
