package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"cdm-backend/application/ports"
)

// CloudWatchMetricSink forwards perf metrics to CloudWatch under a fixed
// namespace. String context values become dimensions; CloudWatch caps
// dimensions per datum, extras are dropped.
type CloudWatchMetricSink struct {
	client    *cloudwatch.Client
	namespace string
	logger    *zap.Logger
}

const maxDimensions = 10

// NewCloudWatchMetricSink creates a metric sink publishing to namespace
func NewCloudWatchMetricSink(client *cloudwatch.Client, namespace string, logger *zap.Logger) *CloudWatchMetricSink {
	return &CloudWatchMetricSink{client: client, namespace: namespace, logger: logger}
}

// RecordMetric publishes one metric datum
func (s *CloudWatchMetricSink) RecordMetric(ctx context.Context, metric ports.PerfMetric) error {
	timestamp := time.Now().UTC()
	if metric.RecordedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, metric.RecordedAt); err == nil {
			timestamp = parsed
		}
	}

	dimensions := make([]cwtypes.Dimension, 0, len(metric.Context))
	for key, value := range metric.Context {
		text, ok := value.(string)
		if !ok {
			text = fmt.Sprintf("%v", value)
		}
		dimensions = append(dimensions, cwtypes.Dimension{
			Name:  aws.String(key),
			Value: aws.String(text),
		})
		if len(dimensions) == maxDimensions {
			break
		}
	}

	_, err := s.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(s.namespace),
		MetricData: []cwtypes.MetricDatum{{
			MetricName: aws.String(metric.Name),
			Value:      aws.Float64(metric.Value),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Timestamp:  aws.Time(timestamp),
			Dimensions: dimensions,
		}},
	})
	if err != nil {
		s.logger.Warn("cloudwatch put metric failed",
			zap.String("metric", metric.Name),
			zap.Error(err),
		)
		return fmt.Errorf("put metric %s: %w", metric.Name, err)
	}
	return nil
}
