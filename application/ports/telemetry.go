package ports

import "context"

// VisitLog records one navigation action against a node/graph
type VisitLog struct {
	ID             string                 `json:"id"`
	Visitor        string                 `json:"visitor"`
	NodeID         string                 `json:"nodeId,omitempty"`
	GraphID        string                 `json:"graphId"`
	Action         string                 `json:"action"`
	Classification string                 `json:"classification,omitempty"`
	HappenedAt     string                 `json:"happenedAt"`
	UserAgent      string                 `json:"userAgent,omitempty"`
	IP             string                 `json:"ip,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// PerfMetric is a single named timing/counter observation
type PerfMetric struct {
	Name       string                 `json:"name"`
	Value      float64                `json:"value"`
	RecordedAt string                 `json:"recordedAt,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// AuditEvent records who did what to which target
type AuditEvent struct {
	ID        string                 `json:"id"`
	Actor     string                 `json:"actor"`
	Action    string                 `json:"action"`
	Target    string                 `json:"target"`
	CreatedAt string                 `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// VisitSink receives visit logs. Sinks are best-effort: a failure must never
// block navigation or editing, callers log and continue.
type VisitSink interface {
	RecordVisit(ctx context.Context, visit VisitLog) error
}

// MetricSink receives perf metrics, best-effort
type MetricSink interface {
	RecordMetric(ctx context.Context, metric PerfMetric) error
}

// AuditLog appends audit events and serves them back for inspection
type AuditLog interface {
	Append(ctx context.Context, event AuditEvent) error
	Events(ctx context.Context) ([]AuditEvent, error)
}
