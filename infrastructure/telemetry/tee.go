package telemetry

import (
	"context"

	"cdm-backend/application/ports"
)

// TeeMetricStore records metrics into a queryable store and forwards each
// one to a secondary sink, typically CloudWatch. Forwarding failures do not
// fail the record; the store stays authoritative.
type TeeMetricStore struct {
	store   *JSONLMetricSink
	forward ports.MetricSink
}

// NewTeeMetricStore composes store with a forwarding sink
func NewTeeMetricStore(store *JSONLMetricSink, forward ports.MetricSink) *TeeMetricStore {
	return &TeeMetricStore{store: store, forward: forward}
}

// RecordMetric stores the metric and forwards it
func (t *TeeMetricStore) RecordMetric(ctx context.Context, metric ports.PerfMetric) error {
	if err := t.store.RecordMetric(ctx, metric); err != nil {
		return err
	}
	if t.forward != nil {
		_ = t.forward.RecordMetric(ctx, metric)
	}
	return nil
}

// Metrics returns the stored metrics
func (t *TeeMetricStore) Metrics() []ports.PerfMetric { return t.store.Metrics() }
