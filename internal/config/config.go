// Package config defines the configuration of the user email worker and its
// tools. Configuration is loaded once at process initialization (Lambda cold
// start) and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> SecretProvider references (Lowest)
//
// Any missing required value or invalid format is returned as a *ConfigError;
// callers fail fast on startup.
package config

import (
	"time"

	"usermail/internal/types"
)

// SecretString is an alias for types.SecretString.
type SecretString = types.SecretString

// Config is the top-level configuration struct.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"usermail-worker"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Database      DatabaseConfig
	AWS           AWSConfig
	Email         EmailConfig
	Policy        PolicyConfig
	Worker        WorkerConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// IsLocal reports whether the process runs outside AWS.
func (c *Config) IsLocal() bool {
	return c.Environment == localEnv
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns          int32         `envconfig:"DB_MAX_CONNS" default:"10" validate:"min=1"`
	MinConns          int32         `envconfig:"DB_MIN_CONNS" default:"1" validate:"min=0"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	UserEmailQueue string `envconfig:"SQS_USER_EMAIL" validate:"omitempty,url"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// EmailConfig holds provider credentials and sender identity.
type EmailConfig struct {
	Provider       string       `envconfig:"EMAIL_PROVIDER" default:"sendgrid" validate:"oneof=sendgrid stub"`
	SendGridAPIKey SecretString `envconfig:"SENDGRID_API_KEY" validate:"required_if=Provider sendgrid"`
	SendGridURL    string       `envconfig:"SENDGRID_BASE_URL" default:"https://api.sendgrid.com" validate:"url"`
	FromAddress    string       `envconfig:"EMAIL_FROM_ADDRESS" default:"noreply@example.com" validate:"email"`
	FromName       string       `envconfig:"EMAIL_FROM_NAME" default:"Forum"`
	// BaseURL is the public site URL used for links in emails (no trailing slash).
	BaseURL string `envconfig:"SITE_BASE_URL" default:"http://localhost:3000" validate:"url"`
	// CompressThreshold is the body size above which producers zstd-compress
	// queue messages. Zero disables compression.
	CompressThreshold int `envconfig:"QUEUE_COMPRESS_THRESHOLD" default:"65536" validate:"min=0"`
}

// PolicyConfig holds the eligibility settings.
type PolicyConfig struct {
	// EmailTimeWindowMins is how recently a user must have been seen for a
	// notification email to be treated as redundant.
	EmailTimeWindowMins int `envconfig:"EMAIL_TIME_WINDOW_MINS" default:"10" validate:"min=0"`
}

// EmailTimeWindow returns the recency window as a duration.
func (p PolicyConfig) EmailTimeWindow() time.Duration {
	return time.Duration(p.EmailTimeWindowMins) * time.Minute
}

// WorkerConfig holds batch processing limits.
type WorkerConfig struct {
	Concurrency int           `envconfig:"WORKER_CONCURRENCY" default:"4" validate:"min=1,max=64"`
	JobTimeout  time.Duration `envconfig:"JOB_TIMEOUT" default:"20s"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"UserMail"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"true"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrSecretResolution indicates a failure when resolving secret references.
	ErrSecretResolution ConfigErrorType = "SECRET_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
