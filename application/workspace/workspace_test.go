package workspace

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"cdm-backend/application/ports"
	"cdm-backend/domain/collab"
	"cdm-backend/domain/graph"
	"cdm-backend/infrastructure/persistence/memory"
	pkgerrors "cdm-backend/pkg/errors"
)

type recordingVisits struct {
	mu     sync.Mutex
	visits []ports.VisitLog
}

func (r *recordingVisits) RecordVisit(_ context.Context, visit ports.VisitLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visits = append(r.visits, visit)
	return nil
}

func testSnapshot() graph.Snapshot {
	return graph.Snapshot{
		Nodes: []graph.Node{
			{ID: "n1", Label: "Alpha", Kind: graph.KindIdea},
			{ID: "n2", Label: "Beta", Kind: graph.KindTask, Fields: map[string]interface{}{"start": "2025-01-01"}},
			{ID: "n3", Label: "Gamma", Kind: graph.KindIdea},
		},
		Edges: []graph.Edge{
			{ID: "e1", From: "n1", To: "n2", Relation: graph.RelationRelated},
			{ID: "e2", From: "n2", To: "n3", Relation: graph.RelationRelated},
		},
	}
}

func newTestWorkspace(t *testing.T, role collab.Role) (*Workspace, *memory.GraphStore) {
	t.Helper()
	repo := memory.NewGraphStore()
	require.NoError(t, repo.SaveSnapshot(context.Background(), "root", testSnapshot()))
	w := New(Options{
		GraphID:       "root",
		Actor:         "tester",
		Role:          role,
		Repo:          repo,
		SeedNodeCount: 10,
		Logger:        zap.NewNop(),
	})
	w.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	require.NoError(t, w.Open(context.Background()))
	return w, repo
}

func TestOpenLoadsExistingSnapshot(t *testing.T) {
	w, _ := newTestWorkspace(t, collab.RoleEditor)

	assert.Equal(t, "root", w.GraphID())
	assert.Len(t, w.Current().Nodes, 3)
	assert.Equal(t, 0, w.Depth())
}

func TestOpenSeedsEmptyGraphAndPersistsForEditor(t *testing.T) {
	repo := memory.NewGraphStore()
	w := New(Options{GraphID: "fresh", Role: collab.RoleEditor, Repo: repo, SeedNodeCount: 10})
	require.NoError(t, w.Open(context.Background()))

	assert.Len(t, w.Current().Nodes, 10)
	stored, err := repo.GetSnapshot(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Len(t, stored.Nodes, 10)
}

func TestOpenSeedsEmptyGraphWithoutPersistingForViewer(t *testing.T) {
	repo := memory.NewGraphStore()
	w := New(Options{GraphID: "fresh", Role: collab.RoleViewer, Repo: repo, SeedNodeCount: 10})
	require.NoError(t, w.Open(context.Background()))

	assert.Len(t, w.Current().Nodes, 10)
	stored, err := repo.GetSnapshot(context.Background(), "fresh")
	require.NoError(t, err)
	assert.True(t, stored.Empty())
}

func TestDrillRequiresSelection(t *testing.T) {
	w, _ := newTestWorkspace(t, collab.RoleEditor)

	err := w.Drill(context.Background())

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestViewerCannotDrill(t *testing.T) {
	w, _ := newTestWorkspace(t, collab.RoleViewer)
	w.Select("n2")

	err := w.Drill(context.Background())

	require.Error(t, err)
	assert.True(t, pkgerrors.IsPermission(err))
	assert.Contains(t, err.Error(), collab.ReadonlyReason)
}

func TestDrillActivatesChildGraph(t *testing.T) {
	w, repo := newTestWorkspace(t, collab.RoleEditor)
	w.SetViewport(Offset{X: 10, Y: 20}, 1.5)
	w.Select("n2")

	require.NoError(t, w.Drill(context.Background()))

	assert.Equal(t, "graph-n2", w.GraphID())
	assert.Equal(t, 1, w.Depth())
	assert.Equal(t, "root", w.RootGraphID())

	// Fresh canvas in the child.
	offset, scale := w.Viewport()
	assert.Equal(t, Offset{}, offset)
	assert.Equal(t, 1.0, scale)
	assert.Empty(t, w.SelectedID())

	crumbs := w.Breadcrumbs()
	require.Len(t, crumbs, 1)
	assert.Equal(t, Breadcrumb{GraphID: "graph-n2", ParentGraphID: "root", NodeID: "n2", Label: "Beta"}, crumbs[0])

	// The extracted neighborhood reaches every chain member and is persisted.
	ids := make([]string, 0, len(w.Current().Nodes))
	for _, n := range w.Current().Nodes {
		ids = append(ids, n.ID)
	}
	assert.ElementsMatch(t, []string{"n1", "n2", "n3"}, ids)
	stored, err := repo.GetSnapshot(context.Background(), "graph-n2")
	require.NoError(t, err)
	assert.Len(t, stored.Nodes, 3)
}

func TestReturnRestoresViewportAndSelection(t *testing.T) {
	w, _ := newTestWorkspace(t, collab.RoleEditor)
	w.SetViewport(Offset{X: 10, Y: 20}, 1.5)
	w.Select("n2")
	require.NoError(t, w.Drill(context.Background()))

	require.NoError(t, w.GoBack(context.Background()))

	assert.Equal(t, "root", w.GraphID())
	assert.Equal(t, 0, w.Depth())
	offset, scale := w.Viewport()
	assert.Equal(t, Offset{X: 10, Y: 20}, offset)
	assert.Equal(t, 1.5, scale)
	assert.Equal(t, "n2", w.SelectedID())
}

func TestReturnMergesChildEditsIntoParent(t *testing.T) {
	w, _ := newTestWorkspace(t, collab.RoleEditor)
	w.Select("n2")
	require.NoError(t, w.Drill(context.Background()))
	require.NoError(t, w.RenameNode(context.Background(), "n3", "Gamma Prime"))

	require.NoError(t, w.GoBack(context.Background()))

	node, ok := w.Current().NodeByID("n3")
	require.True(t, ok)
	assert.Equal(t, "Gamma Prime", node.Label)
}

func TestReturnKeepsDanglingEdgesAndWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	repo := memory.NewGraphStore()
	require.NoError(t, repo.SaveSnapshot(context.Background(), "root", testSnapshot()))
	w := New(Options{
		GraphID:       "root",
		Actor:         "tester",
		Role:          collab.RoleEditor,
		Repo:          repo,
		SeedNodeCount: 10,
		Logger:        zap.New(core),
	})
	w.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	require.NoError(t, w.Open(context.Background()))
	w.Select("n2")
	require.NoError(t, w.Drill(context.Background()))

	// A peer pushes a child state with an edge to a node nobody has.
	child := w.Current().Clone()
	child.Edges = append(child.Edges, graph.Edge{ID: "e9", From: "n2", To: "ghost", Relation: graph.RelationRelated})
	require.True(t, w.ApplyRemoteGraph(w.GraphID(), child))

	require.NoError(t, w.GoBack(context.Background()))

	// The edge survives the merge; the gap is only reported.
	merged := w.Current()
	var kept bool
	for _, e := range merged.Edges {
		if e.ID == "e9" {
			kept = true
		}
	}
	assert.True(t, kept)
	require.Len(t, merged.DanglingEdges(), 1)
	assert.Equal(t, 1, logs.FilterMessage("merged graph has dangling edges").Len())
}

func TestReturnToDepthCollapsesMultipleLevels(t *testing.T) {
	w, _ := newTestWorkspace(t, collab.RoleEditor)
	w.Select("n2")
	require.NoError(t, w.Drill(context.Background()))
	w.Select("n3")
	require.NoError(t, w.Drill(context.Background()))
	require.Equal(t, 2, w.Depth())

	require.NoError(t, w.GoRoot(context.Background()))

	assert.Equal(t, "root", w.GraphID())
	assert.Equal(t, 0, w.Depth())
}

func TestReturnToDepthOutOfRangeIsNoOp(t *testing.T) {
	w, _ := newTestWorkspace(t, collab.RoleEditor)
	w.Select("n2")
	require.NoError(t, w.Drill(context.Background()))

	require.NoError(t, w.ReturnToDepth(context.Background(), 5))
	assert.Equal(t, "graph-n2", w.GraphID())

	require.NoError(t, w.ReturnToDepth(context.Background(), -1))
	assert.Equal(t, "graph-n2", w.GraphID())
}

func TestApplyRemoteGraphDropsOtherGraphIDs(t *testing.T) {
	w, _ := newTestWorkspace(t, collab.RoleEditor)

	applied := w.ApplyRemoteGraph("someone-elses-graph", testSnapshot())
	assert.False(t, applied)

	replacement := graph.Snapshot{Nodes: []graph.Node{{ID: "remote", Kind: graph.KindIdea}}, Edges: []graph.Edge{}}
	applied = w.ApplyRemoteGraph("root", replacement)
	assert.True(t, applied)
	assert.Len(t, w.Current().Nodes, 1)
}

func TestUndoRedoRestoresSnapshots(t *testing.T) {
	w, _ := newTestWorkspace(t, collab.RoleEditor)
	require.NoError(t, w.RenameNode(context.Background(), "n1", "Renamed"))
	require.True(t, w.CanUndo())

	require.NoError(t, w.Undo(context.Background()))
	node, _ := w.Current().NodeByID("n1")
	assert.Equal(t, "Alpha", node.Label)
	require.True(t, w.CanRedo())

	require.NoError(t, w.Redo(context.Background()))
	node, _ = w.Current().NodeByID("n1")
	assert.Equal(t, "Renamed", node.Label)
}

func TestUndoWithEmptyHistoryIsNoOp(t *testing.T) {
	w, _ := newTestWorkspace(t, collab.RoleEditor)

	require.NoError(t, w.Undo(context.Background()))
	assert.Len(t, w.Current().Nodes, 3)
}

func TestViewerCannotUndo(t *testing.T) {
	w, _ := newTestWorkspace(t, collab.RoleViewer)

	err := w.Undo(context.Background())

	require.Error(t, err)
	assert.True(t, pkgerrors.IsPermission(err))
}

func TestDrillEmitsVisitLog(t *testing.T) {
	repo := memory.NewGraphStore()
	require.NoError(t, repo.SaveSnapshot(context.Background(), "root", testSnapshot()))
	visits := &recordingVisits{}
	w := New(Options{GraphID: "root", Actor: "tester", Role: collab.RoleEditor, Repo: repo, Visits: visits})
	require.NoError(t, w.Open(context.Background()))
	w.Select("n2")

	require.NoError(t, w.Drill(context.Background()))

	require.Len(t, visits.visits, 1)
	assert.Equal(t, "drill", visits.visits[0].Action)
	assert.Equal(t, "tester", visits.visits[0].Visitor)
	assert.Equal(t, "n2", visits.visits[0].NodeID)
}

func TestBlockedStatusesUsesActiveSnapshot(t *testing.T) {
	w, _ := newTestWorkspace(t, collab.RoleEditor)

	statuses := w.BlockedStatuses()

	require.Contains(t, statuses, "n2")
	assert.False(t, statuses["n2"].Blocked)
	assert.NotContains(t, statuses, "n1")
}
