// Package telemetry provides the visit, metric and audit sinks. All sinks are
// best-effort; callers log failures and move on.
package telemetry

import (
	"context"
	"sync"

	"cdm-backend/application/ports"
)

// ringLimit bounds each in-memory telemetry buffer
const ringLimit = 1000

// MemoryVisitSink keeps the most recent visit logs in a bounded ring
type MemoryVisitSink struct {
	mu     sync.RWMutex
	visits []ports.VisitLog
}

// NewMemoryVisitSink creates an empty visit buffer
func NewMemoryVisitSink() *MemoryVisitSink {
	return &MemoryVisitSink{}
}

// RecordVisit appends a visit, evicting the oldest past the ring limit
func (s *MemoryVisitSink) RecordVisit(ctx context.Context, visit ports.VisitLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits = append(s.visits, visit)
	if len(s.visits) > ringLimit {
		s.visits = s.visits[1:]
	}
	return nil
}

// Visits returns a copy of the buffered visit logs, newest last
func (s *MemoryVisitSink) Visits() []ports.VisitLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ports.VisitLog, len(s.visits))
	copy(out, s.visits)
	return out
}

// MemoryMetricSink keeps the most recent perf metrics in a bounded ring
type MemoryMetricSink struct {
	mu      sync.RWMutex
	metrics []ports.PerfMetric
}

// NewMemoryMetricSink creates an empty metric buffer
func NewMemoryMetricSink() *MemoryMetricSink {
	return &MemoryMetricSink{}
}

// RecordMetric appends a metric, evicting the oldest past the ring limit
func (s *MemoryMetricSink) RecordMetric(ctx context.Context, metric ports.PerfMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, metric)
	if len(s.metrics) > ringLimit {
		s.metrics = s.metrics[1:]
	}
	return nil
}

// Metrics returns a copy of the buffered metrics, newest last
func (s *MemoryMetricSink) Metrics() []ports.PerfMetric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ports.PerfMetric, len(s.metrics))
	copy(out, s.metrics)
	return out
}

// MemoryAuditLog keeps audit events in a bounded ring and serves them back
type MemoryAuditLog struct {
	mu     sync.RWMutex
	events []ports.AuditEvent
}

// NewMemoryAuditLog creates an empty audit buffer
func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{}
}

// Append records an audit event, evicting the oldest past the ring limit
func (s *MemoryAuditLog) Append(ctx context.Context, event ports.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if len(s.events) > ringLimit {
		s.events = s.events[1:]
	}
	return nil
}

// Events returns a copy of the buffered audit events, newest last
func (s *MemoryAuditLog) Events(ctx context.Context) ([]ports.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ports.AuditEvent, len(s.events))
	copy(out, s.events)
	return out, nil
}
