package external

import (
	"context"

	"usermail/internal/types"
)

// EmailProvider transmits pre-rendered email content.
type EmailProvider interface {
	// Send returns the provider's message id for correlation with delivery events.
	Send(ctx context.Context, input types.SendInput) (providerMsgID string, err error)
}

// Provider names as used in config and metric dimensions.
const (
	ProviderSendGrid = "sendgrid"
	ProviderStub     = "stub"
)
