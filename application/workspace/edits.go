package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cdm-backend/domain/graph"
	"cdm-backend/domain/scheduling"
	pkgerrors "cdm-backend/pkg/errors"
)

// TaskFields carries a partial update of a task node's scheduling fields.
// Nil pointers leave a field untouched.
type TaskFields struct {
	Start      *string
	End        *string
	Progress   *float64
	Status     *string
	Recurrence *string
}

var validStatuses = map[string]struct{}{
	"todo": {}, "doing": {}, "done": {},
}

// AddDependency creates a dependency edge from the selected node to targetID
func (w *Workspace) AddDependency(ctx context.Context, targetID string) error {
	if err := w.guard().Err(); err != nil {
		return err
	}
	if w.selectedID == "" {
		return pkgerrors.NewValidationError("dependency edit requires a selected node")
	}
	if targetID == w.selectedID {
		return pkgerrors.NewValidationError("a node cannot depend on itself")
	}
	started := w.now()
	snapshot := w.store.Current()
	if _, ok := snapshot.NodeByID(targetID); !ok {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("node %s not found", targetID))
	}
	if snapshot.DependencyEdgeExists(w.selectedID, targetID) {
		return pkgerrors.NewConflictError(fmt.Sprintf("dependency %s -> %s already exists", w.selectedID, targetID))
	}

	w.history.Push(w.graphID, snapshot)
	next := snapshot
	next.Edges = append(append([]graph.Edge{}, snapshot.Edges...), graph.Edge{
		ID:             "dep-" + uuid.New().String(),
		From:           w.selectedID,
		To:             targetID,
		Relation:       graph.RelationDependsOn,
		DependencyType: string(graph.DependencyFS),
		CreatedAt:      w.now().UTC().Format(time.RFC3339),
	})
	err := w.applySnapshot(ctx, w.graphID, next)

	w.postMetric(ctx, "dependency.add.duration", w.millisSince(started), map[string]interface{}{
		"from": w.selectedID, "to": targetID,
	})
	w.postAudit(ctx, "dependency.add", w.graphID, map[string]interface{}{
		"from": w.selectedID, "to": targetID,
	})
	return err
}

// RemoveDependency deletes the dependency edge from the selected node to targetID
func (w *Workspace) RemoveDependency(ctx context.Context, targetID string) error {
	if err := w.guard().Err(); err != nil {
		return err
	}
	if w.selectedID == "" {
		return pkgerrors.NewValidationError("dependency edit requires a selected node")
	}
	snapshot := w.store.Current()
	if !snapshot.DependencyEdgeExists(w.selectedID, targetID) {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("dependency %s -> %s not found", w.selectedID, targetID))
	}

	w.history.Push(w.graphID, snapshot)
	next := snapshot
	next.Edges = make([]graph.Edge, 0, len(snapshot.Edges))
	for _, edge := range snapshot.Edges {
		if edge.From == w.selectedID && edge.To == targetID && edge.Relation == graph.RelationDependsOn {
			continue
		}
		next.Edges = append(next.Edges, edge)
	}
	err := w.applySnapshot(ctx, w.graphID, next)

	w.postAudit(ctx, "dependency.remove", w.graphID, map[string]interface{}{
		"from": w.selectedID, "to": targetID,
	})
	return err
}

// SetDependencyType changes the scheduling type of an existing dependency edge
func (w *Workspace) SetDependencyType(ctx context.Context, targetID string, depType graph.DependencyType) error {
	if err := w.guard().Err(); err != nil {
		return err
	}
	if w.selectedID == "" {
		return pkgerrors.NewValidationError("dependency edit requires a selected node")
	}
	if !graph.IsDependencyType(string(depType)) {
		return pkgerrors.NewValidationError(fmt.Sprintf("invalid dependency type: %s", depType))
	}
	snapshot := w.store.Current()
	if !snapshot.DependencyEdgeExists(w.selectedID, targetID) {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("dependency %s -> %s not found", w.selectedID, targetID))
	}

	w.history.Push(w.graphID, snapshot)
	next := snapshot
	next.Edges = make([]graph.Edge, len(snapshot.Edges))
	for i, edge := range snapshot.Edges {
		if edge.From == w.selectedID && edge.To == targetID && edge.Relation == graph.RelationDependsOn {
			edge.DependencyType = string(depType)
		}
		next.Edges[i] = edge
	}
	err := w.applySnapshot(ctx, w.graphID, next)

	w.postAudit(ctx, "dependency.retype", w.graphID, map[string]interface{}{
		"from": w.selectedID, "to": targetID, "type": string(depType),
	})
	return err
}

// MoveNode repositions a node on the canvas
func (w *Workspace) MoveNode(ctx context.Context, nodeID string, x, y float64) error {
	return w.editNode(ctx, nodeID, func(node graph.Node) (graph.Node, error) {
		node.X = x
		node.Y = y
		return node, nil
	})
}

// RenameNode changes a node's label
func (w *Workspace) RenameNode(ctx context.Context, nodeID, label string) error {
	if label == "" {
		return pkgerrors.NewValidationError("node label cannot be empty")
	}
	return w.editNode(ctx, nodeID, func(node graph.Node) (graph.Node, error) {
		node.Label = label
		return node, nil
	})
}

// ToggleKind changes a node's kind, stripping task fields on the way out of task
func (w *Workspace) ToggleKind(ctx context.Context, nodeID string, kind graph.NodeKind) error {
	return w.editNode(ctx, nodeID, func(node graph.Node) (graph.Node, error) {
		if err := node.SetKind(kind); err != nil {
			return node, err
		}
		return node, nil
	})
}

// SetTaskFields updates a task node's scheduling fields. Dates must parse,
// progress stays within 0..100 and status within the known set; any invalid
// value rejects the whole update before state changes.
func (w *Workspace) SetTaskFields(ctx context.Context, nodeID string, fields TaskFields) error {
	if fields.Start != nil && *fields.Start != "" {
		if _, ok := scheduling.ParseDate(*fields.Start); !ok {
			return pkgerrors.NewValidationError(fmt.Sprintf("invalid start date: %s", *fields.Start))
		}
	}
	if fields.End != nil && *fields.End != "" {
		if _, ok := scheduling.ParseDate(*fields.End); !ok {
			return pkgerrors.NewValidationError(fmt.Sprintf("invalid end date: %s", *fields.End))
		}
	}
	if fields.Progress != nil && (*fields.Progress < 0 || *fields.Progress > 100) {
		return pkgerrors.NewValidationError("progress must be between 0 and 100")
	}
	if fields.Status != nil {
		if _, ok := validStatuses[*fields.Status]; !ok {
			return pkgerrors.NewValidationError(fmt.Sprintf("invalid status: %s", *fields.Status))
		}
	}
	return w.editNode(ctx, nodeID, func(node graph.Node) (graph.Node, error) {
		if node.Kind != graph.KindTask {
			return node, pkgerrors.NewValidationError(fmt.Sprintf("node %s is not a task", nodeID))
		}
		if fields.Start != nil {
			node.SetField("start", *fields.Start)
		}
		if fields.End != nil {
			node.SetField("end", *fields.End)
		}
		if fields.Progress != nil {
			node.SetField("progress", *fields.Progress)
		}
		if fields.Status != nil {
			node.SetField("status", *fields.Status)
		}
		if fields.Recurrence != nil {
			node.SetField("recurrence", *fields.Recurrence)
		}
		return node, nil
	})
}

// editNode applies a single-node mutation with guard, history and persistence
func (w *Workspace) editNode(ctx context.Context, nodeID string, mutate func(graph.Node) (graph.Node, error)) error {
	if err := w.guard().Err(); err != nil {
		return err
	}
	snapshot := w.store.Current()
	index, ok := snapshot.NodePosition(nodeID)
	if !ok {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("node %s not found", nodeID))
	}
	updated, err := mutate(snapshot.Nodes[index])
	if err != nil {
		return err
	}
	updated.UpdatedAt = w.now().UTC().Format(time.RFC3339)

	w.history.Push(w.graphID, snapshot)
	next := snapshot
	next.Nodes = append([]graph.Node{}, snapshot.Nodes...)
	next.Nodes[index] = updated
	return w.applySnapshot(ctx, w.graphID, next)
}
