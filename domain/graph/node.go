package graph

import (
	"time"

	pkgerrors "cdm-backend/pkg/errors"
)

// NodeKind classifies what a node represents on the canvas
type NodeKind string

const (
	KindIdea     NodeKind = "idea"
	KindTask     NodeKind = "task"
	KindTimeline NodeKind = "timeline"
	KindBoard    NodeKind = "board"
	KindCustom   NodeKind = "custom"
)

// TaskStatus values stored in the "status" task field
const (
	StatusTodo  = "todo"
	StatusDoing = "doing"
	StatusDone  = "done"
)

// taskFieldKeys are the scheduling fields only kind=task nodes may carry
var taskFieldKeys = []string{"start", "end", "progress", "status", "recurrence"}

// Node is a single idea/task unit inside a graph snapshot.
// Field values are open-ended; task scheduling fields live under well-known keys.
type Node struct {
	ID        string                 `json:"id"`
	Label     string                 `json:"label"`
	Kind      NodeKind               `json:"kind"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	X         float64                `json:"x"`
	Y         float64                `json:"y"`
	Folded    bool                   `json:"folded,omitempty"`
	Masked    bool                   `json:"masked,omitempty"`
	CreatedAt string                 `json:"createdAt"`
	UpdatedAt string                 `json:"updatedAt"`
}

// NewNode creates a node with validated required fields
func NewNode(id, label string, kind NodeKind) (Node, error) {
	if id == "" {
		return Node{}, pkgerrors.NewValidationError("node id cannot be empty")
	}
	if label == "" {
		return Node{}, pkgerrors.NewValidationError("node label cannot be empty")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	return Node{
		ID:        id,
		Label:     label,
		Kind:      kind,
		Fields:    map[string]interface{}{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// FieldString returns the named field when it holds a string, otherwise ""
func (n Node) FieldString(key string) string {
	if n.Fields == nil {
		return ""
	}
	if s, ok := n.Fields[key].(string); ok {
		return s
	}
	return ""
}

// FieldNumber returns the named field when it holds a number
func (n Node) FieldNumber(key string) (float64, bool) {
	if n.Fields == nil {
		return 0, false
	}
	switch v := n.Fields[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Status returns the task status, defaulting to todo for unknown values
func (n Node) Status() string {
	switch s := n.FieldString("status"); s {
	case StatusTodo, StatusDoing, StatusDone:
		return s
	default:
		return StatusTodo
	}
}

// Classification returns the node's data classification, defaulting to public
func (n Node) Classification() string {
	if c := n.FieldString("classification"); c != "" {
		return c
	}
	return "public"
}

// SetField sets a single field value on a copied field map
func (n *Node) SetField(key string, value interface{}) {
	fields := make(map[string]interface{}, len(n.Fields)+1)
	for k, v := range n.Fields {
		fields[k] = v
	}
	fields[key] = value
	n.Fields = fields
}

// SetKind changes the node kind. Switching away from task strips the
// scheduling fields so non-task nodes never carry them.
func (n *Node) SetKind(kind NodeKind) error {
	switch kind {
	case KindIdea, KindTask, KindTimeline, KindBoard, KindCustom:
	default:
		return pkgerrors.NewValidationError("unknown node kind: " + string(kind))
	}
	if n.Kind == KindTask && kind != KindTask {
		fields := make(map[string]interface{}, len(n.Fields))
		for k, v := range n.Fields {
			fields[k] = v
		}
		for _, key := range taskFieldKeys {
			delete(fields, key)
		}
		n.Fields = fields
	}
	n.Kind = kind
	n.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return nil
}

// cloneFields deep-copies a field map
func cloneFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Clone returns a copy sharing no mutable state with the original
func (n Node) Clone() Node {
	clone := n
	clone.Fields = cloneFields(n.Fields)
	return clone
}
