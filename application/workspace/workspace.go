package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cdm-backend/application/ports"
	"cdm-backend/domain/collab"
	"cdm-backend/domain/graph"
	"cdm-backend/domain/scheduling"
	pkgerrors "cdm-backend/pkg/errors"
)

// Options configures a workspace session
type Options struct {
	GraphID       string
	Actor         string
	Role          collab.Role
	Repo          ports.GraphRepository
	Visits        ports.VisitSink
	Metrics       ports.MetricSink
	Audit         ports.AuditLog
	SeedNodeCount int
	Logger        *zap.Logger
}

// Workspace is one participant's session over the graph hierarchy: the
// snapshot store, the navigation stack, per-graph history and the telemetry
// emitters, wired to a single write-capability role. State is process-local
// and single-writer; cross-process consistency rides the collaboration
// version protocol, never shared memory.
type Workspace struct {
	graphID    string
	actor      string
	role       collab.Role
	store      *SnapshotStore
	history    *History
	preloaded  *preload
	frames     []navFrame
	offset     Offset
	scale      float64
	selectedID string

	visits  ports.VisitSink
	metrics ports.MetricSink
	audit   ports.AuditLog

	seedCount int
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a workspace session for one graph id
func New(opts Options) *Workspace {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	seedCount := opts.SeedNodeCount
	if seedCount <= 0 {
		seedCount = 200
	}
	return &Workspace{
		graphID:   opts.GraphID,
		actor:     opts.Actor,
		role:      opts.Role,
		store:     NewSnapshotStore(opts.Repo),
		history:   NewHistory(),
		preloaded: newPreload(),
		scale:     1,
		visits:    opts.Visits,
		metrics:   opts.Metrics,
		audit:     opts.Audit,
		seedCount: seedCount,
		logger:    logger,
		now:       time.Now,
	}
}

// Open loads (or seeds) the session's graph and makes it active
func (w *Workspace) Open(ctx context.Context) error {
	return w.activateGraph(ctx, w.graphID)
}

// GraphID returns the currently active graph id
func (w *Workspace) GraphID() string { return w.graphID }

// Role returns the session's write-capability role
func (w *Workspace) Role() collab.Role { return w.role }

// Current returns the active snapshot
func (w *Workspace) Current() graph.Snapshot { return w.store.Current() }

// Revision returns the local change counter of the active snapshot
func (w *Workspace) Revision() uint64 { return w.store.Revision() }

// Select records the node selection used by drill and dependency edits
func (w *Workspace) Select(nodeID string) { w.selectedID = nodeID }

// SelectedID returns the current selection, empty when nothing is selected
func (w *Workspace) SelectedID() string { return w.selectedID }

// SetViewport records the canvas offset and zoom
func (w *Workspace) SetViewport(offset Offset, scale float64) {
	w.offset = offset
	w.scale = scale
}

// Viewport returns the canvas offset and zoom
func (w *Workspace) Viewport() (Offset, float64) { return w.offset, w.scale }

// Depth returns how many drill levels deep the session is
func (w *Workspace) Depth() int { return len(w.frames) }

// RootGraphID returns the graph id at the bottom of the drill stack
func (w *Workspace) RootGraphID() string {
	if len(w.frames) > 0 {
		return w.frames[0].ctx.GraphID
	}
	return w.graphID
}

// Breadcrumbs returns the display trail, one entry per drill level
func (w *Workspace) Breadcrumbs() []Breadcrumb {
	crumbs := make([]Breadcrumb, len(w.frames))
	for i, f := range w.frames {
		crumbs[i] = f.crumb
	}
	return crumbs
}

// CanUndo reports whether the active graph has undoable history
func (w *Workspace) CanUndo() bool { return w.history.CanUndo(w.graphID) }

// CanRedo reports whether the active graph has redoable history
func (w *Workspace) CanRedo() bool { return w.history.CanRedo(w.graphID) }

// BlockedStatuses runs the dependency validator over the active snapshot
func (w *Workspace) BlockedStatuses() map[string]scheduling.BlockedStatus {
	snapshot := w.store.Current()
	return scheduling.Validate(snapshot.Nodes, snapshot.Edges)
}

// activateGraph makes graphID active, consuming a preloaded snapshot when
// one is waiting, otherwise loading from the repository. An empty graph is
// seeded; the seed is persisted only for editor sessions.
func (w *Workspace) activateGraph(ctx context.Context, graphID string) error {
	snapshot, ok := w.preloaded.Consume(graphID)
	if !ok {
		loaded, err := w.store.Load(ctx, graphID)
		if err != nil {
			w.logger.Warn("load graph failed", zap.String("graphId", graphID), zap.Error(err))
			loaded = graph.Snapshot{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
		}
		snapshot = loaded
	}
	if snapshot.Empty() {
		snapshot = graph.SeedSnapshot(w.seedCount)
		if w.guard().Allowed {
			if err := w.store.Persist(ctx, graphID, snapshot); err != nil {
				w.logger.Warn("seed graph save failed", zap.String("graphId", graphID), zap.Error(err))
			}
		}
	}
	w.graphID = graphID
	w.store.Replace(snapshot)
	return nil
}

// applySnapshot replaces local state optimistically and persists. On persist
// failure the optimistic state is retained and the transport error surfaced;
// rolling back would fight the user's in-flight edits.
func (w *Workspace) applySnapshot(ctx context.Context, graphID string, snapshot graph.Snapshot) error {
	w.store.Replace(snapshot)
	if err := w.store.Persist(ctx, graphID, snapshot); err != nil {
		w.logger.Warn("persist snapshot failed", zap.String("graphId", graphID), zap.Error(err))
		return err
	}
	return nil
}

// ApplyRemoteGraph installs a snapshot pushed by a peer. Pushes for any graph
// other than the active one are stale and dropped.
func (w *Workspace) ApplyRemoteGraph(graphID string, snapshot graph.Snapshot) bool {
	if graphID != w.graphID {
		return false
	}
	w.store.Replace(snapshot)
	return true
}

// Drill projects the selected node's neighborhood into its own addressable
// sub-graph and makes that sub-graph active
func (w *Workspace) Drill(ctx context.Context) error {
	if err := w.guard().Err(); err != nil {
		return err
	}
	if w.selectedID == "" {
		return pkgerrors.NewValidationError("drill requires a selected node")
	}
	started := w.now()
	snapshot := w.store.Current()
	classification := w.classificationOf(w.selectedID)
	parentID := w.graphID
	childID := graph.ChildGraphID(w.selectedID)

	subset := graph.ExtractSubgraph(snapshot, w.selectedID, graph.DefaultSubgraphLimit)
	if err := w.store.Persist(ctx, childID, subset); err != nil {
		w.logger.Warn("drill snapshot save failed", zap.String("graphId", childID), zap.Error(err))
	}
	w.preloaded.Put(childID, subset)

	label := w.selectedID
	if node, ok := snapshot.NodeByID(w.selectedID); ok && node.Label != "" {
		label = node.Label
	}
	w.frames = append(w.frames, navFrame{
		ctx: DrillContext{
			GraphID:                parentID,
			Offset:                 w.offset,
			Scale:                  w.scale,
			SelectedID:             w.selectedID,
			SelectedClassification: classification,
		},
		crumb: Breadcrumb{
			GraphID:       childID,
			ParentGraphID: parentID,
			NodeID:        w.selectedID,
			Label:         label,
		},
	})

	nodeID := w.selectedID
	if err := w.activateGraph(ctx, childID); err != nil {
		return err
	}
	w.offset = Offset{}
	w.scale = 1
	w.selectedID = ""

	w.postMetric(ctx, "graph.drill.duration", w.millisSince(started), map[string]interface{}{
		"from": parentID, "to": childID, "nodeId": nodeID,
	})
	w.logVisit(ctx, "drill", nodeID, parentID, classification)
	w.postAudit(ctx, "drill", childID, map[string]interface{}{
		"parentGraphId": parentID, "nodeId": nodeID, "classification": classification,
	})
	return nil
}

// ReturnToDepth merges, level by level, back down to targetDepth and
// restores that level's viewport and selection. Out-of-range targets are a
// no-op. Each merge awaits its persistence before the next frame pops, so a
// multi-level return is strictly sequential.
func (w *Workspace) ReturnToDepth(ctx context.Context, targetDepth int) error {
	currentDepth := len(w.frames)
	if currentDepth == 0 || targetDepth < 0 || targetDepth >= currentDepth {
		return nil
	}
	started := w.now()
	fromGraphID := w.graphID
	fromDepth := currentDepth
	currentGraphID := w.graphID
	var target *DrillContext
	steps := 0

	for len(w.frames) > targetDepth {
		frame := w.frames[len(w.frames)-1]
		w.frames = w.frames[:len(w.frames)-1]
		if err := w.mergeChildIntoParent(ctx, currentGraphID, frame.ctx.GraphID); err != nil {
			w.logger.Warn("merge-back failed",
				zap.String("child", currentGraphID),
				zap.String("parent", frame.ctx.GraphID),
				zap.Error(err))
		}
		currentGraphID = frame.ctx.GraphID
		ctxCopy := frame.ctx
		target = &ctxCopy
		steps++
	}
	if target == nil {
		return nil
	}

	if err := w.activateGraph(ctx, target.GraphID); err != nil {
		return err
	}
	w.offset = target.Offset
	w.scale = target.Scale
	w.selectedID = target.SelectedID

	w.postMetric(ctx, "graph.return.duration", w.millisSince(started), map[string]interface{}{
		"from": fromGraphID, "to": target.GraphID, "steps": steps, "fromDepth": fromDepth,
	})
	w.logVisit(ctx, "return", target.SelectedID, target.GraphID, target.SelectedClassification)
	w.postAudit(ctx, "return", target.GraphID, map[string]interface{}{
		"from": fromGraphID, "nodeId": target.SelectedID, "steps": steps,
		"fromDepth": fromDepth, "classification": target.SelectedClassification,
	})
	return nil
}

// GoBack returns one drill level
func (w *Workspace) GoBack(ctx context.Context) error {
	if len(w.frames) == 0 {
		return nil
	}
	return w.ReturnToDepth(ctx, len(w.frames)-1)
}

// GoRoot collapses the whole drill stack in one call
func (w *Workspace) GoRoot(ctx context.Context) error {
	if len(w.frames) == 0 {
		return nil
	}
	return w.ReturnToDepth(ctx, 0)
}

// mergeChildIntoParent reconciles the child graph into its parent and leaves
// the merged result both persisted and preloaded for immediate activation.
// An empty child is a normal nothing-to-merge case, silently skipped.
func (w *Workspace) mergeChildIntoParent(ctx context.Context, childID, parentID string) error {
	childSnap, err := w.snapshotForMerge(ctx, childID)
	if err != nil {
		return err
	}
	parentSnap, err := w.store.Load(ctx, parentID)
	if err != nil {
		return err
	}
	if childSnap.Empty() {
		return nil
	}
	if w.guard().Allowed {
		w.history.Push(parentID, parentSnap)
	}
	merged, ok := graph.MergeChildIntoParent(parentSnap, childSnap, w.now())
	if !ok {
		return nil
	}
	// Edges pointing at nodes the merge did not bring back stay in the
	// snapshot; the scheduling validator reports them, they are not erased.
	if dangling := merged.DanglingEdges(); len(dangling) > 0 {
		w.logger.Warn("merged graph has dangling edges",
			zap.String("graphId", parentID),
			zap.Int("count", len(dangling)))
	}
	if err := w.store.Persist(ctx, parentID, merged); err != nil {
		return err
	}
	w.preloaded.Put(parentID, merged)
	return nil
}

// snapshotForMerge reads the child side of a merge: the live store when the
// child is the active graph, a waiting preload entry otherwise, the
// repository as a last resort
func (w *Workspace) snapshotForMerge(ctx context.Context, graphID string) (graph.Snapshot, error) {
	if graphID == w.graphID {
		return w.store.Current(), nil
	}
	if snapshot, ok := w.preloaded.Consume(graphID); ok {
		return snapshot, nil
	}
	return w.store.Load(ctx, graphID)
}

// Undo reverts the active graph to its previous snapshot
func (w *Workspace) Undo(ctx context.Context) error {
	if err := w.guard().Err(); err != nil {
		return err
	}
	previous, ok := w.history.Undo(w.graphID, w.store.Current())
	if !ok {
		return nil
	}
	err := w.applySnapshot(ctx, w.graphID, previous)
	classification := w.classificationOf(w.selectedID)
	w.logVisit(ctx, "undo", w.selectedID, w.graphID, classification)
	w.postAudit(ctx, "undo", w.graphID, map[string]interface{}{
		"nodeId": w.selectedID, "classification": classification,
	})
	return err
}

// Redo re-applies the most recently undone snapshot
func (w *Workspace) Redo(ctx context.Context) error {
	if err := w.guard().Err(); err != nil {
		return err
	}
	next, ok := w.history.Redo(w.graphID, w.store.Current())
	if !ok {
		return nil
	}
	err := w.applySnapshot(ctx, w.graphID, next)
	classification := w.classificationOf(w.selectedID)
	w.logVisit(ctx, "redo", w.selectedID, w.graphID, classification)
	w.postAudit(ctx, "redo", w.graphID, map[string]interface{}{
		"nodeId": w.selectedID, "classification": classification,
	})
	return err
}

// classificationOf resolves a node's data classification for telemetry
func (w *Workspace) classificationOf(nodeID string) string {
	if nodeID == "" {
		return "unknown"
	}
	node, ok := w.store.Current().NodeByID(nodeID)
	if !ok {
		return "unknown"
	}
	return node.Classification()
}

func (w *Workspace) millisSince(started time.Time) float64 {
	return float64(w.now().Sub(started).Microseconds()) / 1000
}

// Telemetry emission is best-effort: a sink outage never blocks navigation
// or editing, failures are logged and dropped.

func (w *Workspace) logVisit(ctx context.Context, action, nodeID, graphID, classification string) {
	if w.visits == nil {
		return
	}
	visit := ports.VisitLog{
		ID:             uuid.New().String(),
		Visitor:        w.actor,
		NodeID:         nodeID,
		GraphID:        graphID,
		Action:         action,
		Classification: classification,
		HappenedAt:     w.now().UTC().Format(time.RFC3339),
	}
	if err := w.visits.RecordVisit(ctx, visit); err != nil {
		w.logger.Debug("visit sink failed", zap.Error(err))
	}
}

func (w *Workspace) postMetric(ctx context.Context, name string, value float64, metricContext map[string]interface{}) {
	if w.metrics == nil {
		return
	}
	metric := ports.PerfMetric{
		Name:       name,
		Value:      value,
		RecordedAt: w.now().UTC().Format(time.RFC3339),
		Context:    metricContext,
	}
	if err := w.metrics.RecordMetric(ctx, metric); err != nil {
		w.logger.Debug("metric sink failed", zap.Error(err))
	}
}

func (w *Workspace) postAudit(ctx context.Context, action, target string, metadata map[string]interface{}) {
	if w.audit == nil {
		return
	}
	event := ports.AuditEvent{
		ID:        fmt.Sprintf("audit-%s", uuid.New().String()),
		Actor:     w.actor,
		Action:    action,
		Target:    target,
		CreatedAt: w.now().UTC().Format(time.RFC3339),
		Metadata:  metadata,
	}
	if err := w.audit.Append(ctx, event); err != nil {
		w.logger.Debug("audit log failed", zap.Error(err))
	}
}
