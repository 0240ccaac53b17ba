package types

// Telemetry metric names for CloudWatch.
const (
	// Metric Names
	MetricEmailEvaluated   = "EmailEvaluated"
	MetricEmailSent        = "EmailSent"
	MetricEmailSkipped     = "EmailSkipped"
	MetricEmailSuppressed  = "EmailSuppressed"
	MetricEmailInvalid     = "EmailInvalid"
	MetricEmailFailed      = "EmailFailed"
	MetricEvaluationMillis = "EvaluationLatency"

	// Dimension Keys
	DimEmailType  = "EmailType"
	DimSkipReason = "SkipReason"
	DimProvider   = "Provider"

	// Metric Namespace
	MetricNamespace = "UserMail"
)
