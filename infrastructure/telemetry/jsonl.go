package telemetry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"cdm-backend/application/ports"
)

// jsonlWriter appends one JSON object per line to a file, creating parent
// directories on first write. A single mutex serializes writers; telemetry
// volume is low enough that contention does not matter.
type jsonlWriter struct {
	mu   sync.Mutex
	path string
	file *os.File
}

func newJSONLWriter(path string) *jsonlWriter {
	return &jsonlWriter{path: path}
}

func (w *jsonlWriter) append(record interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
			return err
		}
		file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		w.file = file
	}
	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = w.file.Write(line)
	return err
}

// Close releases the underlying file
func (w *jsonlWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// JSONLVisitSink mirrors visits into a JSONL file while keeping the memory
// ring queryable
type JSONLVisitSink struct {
	inner  *MemoryVisitSink
	writer *jsonlWriter
}

// NewJSONLVisitSink creates a visit sink writing to dir/visits.jsonl
func NewJSONLVisitSink(dir string) *JSONLVisitSink {
	return &JSONLVisitSink{
		inner:  NewMemoryVisitSink(),
		writer: newJSONLWriter(filepath.Join(dir, "visits.jsonl")),
	}
}

// RecordVisit buffers the visit and appends it to the file
func (s *JSONLVisitSink) RecordVisit(ctx context.Context, visit ports.VisitLog) error {
	if err := s.inner.RecordVisit(ctx, visit); err != nil {
		return err
	}
	return s.writer.append(visit)
}

// Visits returns the buffered visit logs
func (s *JSONLVisitSink) Visits() []ports.VisitLog { return s.inner.Visits() }

// Close releases the underlying file
func (s *JSONLVisitSink) Close() error { return s.writer.Close() }

// JSONLMetricSink mirrors metrics into a JSONL file
type JSONLMetricSink struct {
	inner  *MemoryMetricSink
	writer *jsonlWriter
}

// NewJSONLMetricSink creates a metric sink writing to dir/metrics.jsonl
func NewJSONLMetricSink(dir string) *JSONLMetricSink {
	return &JSONLMetricSink{
		inner:  NewMemoryMetricSink(),
		writer: newJSONLWriter(filepath.Join(dir, "metrics.jsonl")),
	}
}

// RecordMetric buffers the metric and appends it to the file
func (s *JSONLMetricSink) RecordMetric(ctx context.Context, metric ports.PerfMetric) error {
	if err := s.inner.RecordMetric(ctx, metric); err != nil {
		return err
	}
	return s.writer.append(metric)
}

// Metrics returns the buffered metrics
func (s *JSONLMetricSink) Metrics() []ports.PerfMetric { return s.inner.Metrics() }

// Close releases the underlying file
func (s *JSONLMetricSink) Close() error { return s.writer.Close() }

// JSONLAuditLog mirrors audit events into a JSONL file
type JSONLAuditLog struct {
	inner  *MemoryAuditLog
	writer *jsonlWriter
}

// NewJSONLAuditLog creates an audit log writing to dir/audit.jsonl
func NewJSONLAuditLog(dir string) *JSONLAuditLog {
	return &JSONLAuditLog{
		inner:  NewMemoryAuditLog(),
		writer: newJSONLWriter(filepath.Join(dir, "audit.jsonl")),
	}
}

// Append buffers the event and appends it to the file
func (s *JSONLAuditLog) Append(ctx context.Context, event ports.AuditEvent) error {
	if err := s.inner.Append(ctx, event); err != nil {
		return err
	}
	return s.writer.append(event)
}

// Events returns the buffered audit events
func (s *JSONLAuditLog) Events(ctx context.Context) ([]ports.AuditEvent, error) {
	return s.inner.Events(ctx)
}

// Close releases the underlying file
func (s *JSONLAuditLog) Close() error { return s.writer.Close() }
