package external

import (
	"fmt"
	"net/http"
	"time"

	"usermail/internal/config"
	"usermail/internal/types"
)

// NewEmailProvider selects the provider named by cfg.Provider. Local runs
// without a SendGrid key fall back to the stub.
func NewEmailProvider(cfg config.EmailConfig, local bool, logger types.Logger) (EmailProvider, error) {
	switch {
	case cfg.Provider == ProviderStub, local && cfg.SendGridAPIKey.IsZero():
		return NewStubEmailProvider(logger.With("provider", ProviderStub)), nil
	case cfg.Provider == ProviderSendGrid:
		return NewSendGridClient(&http.Client{Timeout: 10 * time.Second}, SendGridClientConfig{
			APIKey:  cfg.SendGridAPIKey,
			BaseURL: cfg.SendGridURL,
			Logger:  logger.With("provider", ProviderSendGrid),
		}), nil
	default:
		return nil, fmt.Errorf("external: unknown email provider %q", cfg.Provider)
	}
}
