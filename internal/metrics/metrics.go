// Package metrics records prediction and proactive-tick metrics.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"lumera/internal/types"
)

// Recorder is implemented by CloudWatchMetrics and NoopMetrics.
type Recorder interface {
	RecordPrediction(ctx context.Context, kind types.PredictionKind, outcome string, elapsed time.Duration)
	RecordTick(ctx context.Context, decision string)
}

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

var (
	_ Recorder = (*CloudWatchMetrics)(nil)
	_ Recorder = NoopMetrics{}
)

// CloudWatchMetrics emits:
//   - PredictionCount: Dims {Kind, Outcome}, one per request
//   - PredictionLatency: Dims {Kind}, only for requests that reached inference
//   - TickDecision: Dims {Decision}, one per proactive tick
//
// Publishing failures are logged and otherwise ignored.
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchMetrics publishes to namespace, or types.MetricNamespace when empty.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchMetrics{client: client, namespace: namespace, logger: logger}
}

func dim(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

// RecordPrediction implements Recorder.
func (m *CloudWatchMetrics) RecordPrediction(ctx context.Context, kind types.PredictionKind, outcome string, elapsed time.Duration) {
	data := []cwtypes.MetricDatum{
		{
			MetricName: aws.String(types.MetricPredictionCount),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{
				dim(types.DimKind, string(kind)),
				dim(types.DimOutcome, outcome),
			},
		},
	}
	if outcome != types.OutcomeBusy {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricPredictionLatency),
			Value:      aws.Float64(float64(elapsed.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: []cwtypes.Dimension{dim(types.DimKind, string(kind))},
		})
	}

	if _, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}); err != nil {
		m.logger.WarnContext(ctx, "failed to record prediction metric",
			"error", err.Error(),
			"kind", string(kind),
			"outcome", outcome,
		)
	}
}

// RecordTick implements Recorder.
func (m *CloudWatchMetrics) RecordTick(ctx context.Context, decision string) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(types.MetricTickDecision),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{dim(types.DimDecision, decision)},
			},
		},
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.WarnContext(ctx, "failed to record tick metric",
			"error", err.Error(),
			"decision", decision,
		)
	}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

// RecordPrediction implements Recorder.
func (NoopMetrics) RecordPrediction(context.Context, types.PredictionKind, string, time.Duration) {}

// RecordTick implements Recorder.
func (NoopMetrics) RecordTick(context.Context, string) {}
