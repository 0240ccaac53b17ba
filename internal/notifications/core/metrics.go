// Package core holds the cross-cutting pieces of the email pipeline that are
// not tied to one message type. Today that is decision telemetry.
package core

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"usermail/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// FailureClass separates requests the worker rejected from requests that
// failed on infrastructure and will be redelivered.
type FailureClass string

const (
	FailureInvalid FailureClass = "invalid"
	FailureFailed  FailureClass = "failed"
)

var outcomeMetrics = map[string]string{
	"sent":       types.MetricEmailSent,
	"skipped":    types.MetricEmailSkipped,
	"suppressed": types.MetricEmailSuppressed,
}

// DecisionMetrics publishes evaluation outcomes to CloudWatch.
//
// Metrics emitted:
//   - EmailEvaluated: Dims {EmailType} on every completed evaluation
//   - EmailSent / EmailSuppressed: Dims {EmailType}
//   - EmailSkipped: Dims {EmailType, SkipReason}
//   - EvaluationLatency: Dims {EmailType}, milliseconds
//   - EmailInvalid / EmailFailed: Dims {EmailType} from the worker
//
// Publishing errors are logged and never returned.
type DecisionMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewDecisionMetrics creates a DecisionMetrics. An empty namespace selects
// types.MetricNamespace.
func NewDecisionMetrics(client CloudWatchClient, namespace string, logger types.Logger) *DecisionMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &DecisionMetrics{client: client, namespace: namespace, logger: logger}
}

// RecordDecision emits the evaluated count, the outcome count and the
// latency in a single PutMetricData call.
func (m *DecisionMetrics) RecordDecision(ctx context.Context, emailType types.EmailType, outcome string, reasonCode string, elapsed time.Duration) {
	typeDim := dimension(types.DimEmailType, string(emailType))

	data := []cwtypes.MetricDatum{
		count(types.MetricEmailEvaluated, typeDim),
		{
			MetricName: aws.String(types.MetricEvaluationMillis),
			Value:      aws.Float64(float64(elapsed.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: []cwtypes.Dimension{typeDim},
		},
	}
	if name, ok := outcomeMetrics[outcome]; ok {
		dims := []cwtypes.Dimension{typeDim}
		if reasonCode != "" {
			dims = append(dims, dimension(types.DimSkipReason, reasonCode))
		}
		data = append(data, count(name, dims...))
	}

	m.put(ctx, data, "outcome", outcome, "email_type", string(emailType))
}

// RecordFailure counts a request that ended in an error.
func (m *DecisionMetrics) RecordFailure(ctx context.Context, emailType types.EmailType, class FailureClass) {
	name := types.MetricEmailFailed
	if class == FailureInvalid {
		name = types.MetricEmailInvalid
	}
	m.put(ctx, []cwtypes.MetricDatum{
		count(name, dimension(types.DimEmailType, string(emailType))),
	}, "failure", string(class), "email_type", string(emailType))
}

func (m *DecisionMetrics) put(ctx context.Context, data []cwtypes.MetricDatum, logArgs ...any) {
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
	if err != nil {
		m.logger.Error("failed to publish metrics", append([]any{"error", err.Error()}, logArgs...)...)
	}
}

func dimension(name, value string) cwtypes.Dimension {
	if value == "" {
		value = "unknown"
	}
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

func count(name string, dims ...cwtypes.Dimension) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: dims,
	}
}
