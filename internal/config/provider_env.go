package config

import (
	"context"
	"os"
)

// EnvVarProvider implements SecretProvider by treating each reference as the
// name of another environment variable. It lets several services share one
// injected secret (SENDGRID_API_KEY_SECRET_REF=SHARED_SENDGRID_KEY) without
// a remote parameter store.
type EnvVarProvider struct{}

// NewEnvVarProvider creates a new EnvVarProvider.
func NewEnvVarProvider() *EnvVarProvider {
	return &EnvVarProvider{}
}

// GetParametersBatch resolves each key via os.LookupEnv. Missing keys are omitted.
func (p *EnvVarProvider) GetParametersBatch(_ context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := os.LookupEnv(key); ok {
			result[key] = val
		}
	}
	return result, nil
}
