package workspace

import (
	"context"
	"sync"
	"time"

	"cdm-backend/application/ports"
	"cdm-backend/domain/graph"
	pkgerrors "cdm-backend/pkg/errors"
)

// Persistence calls get a fixed timeout; a late response for a graph id the
// session has already navigated away from is dropped by the caller.
const (
	loadSnapshotTimeout = 5 * time.Second
	saveSnapshotTimeout = 2 * time.Second
)

// SnapshotStore holds the node/edge set of the currently open graph.
// All reads go through Current and all writes through Replace; mutations
// build new collections rather than editing in place, so previously returned
// snapshots stay valid for diffing and undo.
type SnapshotStore struct {
	mu       sync.RWMutex
	snapshot graph.Snapshot
	revision uint64
	repo     ports.GraphRepository
}

// NewSnapshotStore creates an empty store backed by the given repository
func NewSnapshotStore(repo ports.GraphRepository) *SnapshotStore {
	return &SnapshotStore{
		snapshot: graph.Snapshot{Nodes: []graph.Node{}, Edges: []graph.Edge{}},
		repo:     repo,
	}
}

// Current returns the active snapshot without side effects
func (s *SnapshotStore) Current() graph.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Replace atomically swaps in a new snapshot and bumps the revision counter.
// The revision only triggers downstream recomputation; it plays no part in
// conflict resolution.
func (s *SnapshotStore) Replace(snapshot graph.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	s.revision++
}

// Revision returns the monotonically increasing local change counter
func (s *SnapshotStore) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Load reads a snapshot from the repository under the load timeout
func (s *SnapshotStore) Load(ctx context.Context, graphID string) (graph.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, loadSnapshotTimeout)
	defer cancel()
	snapshot, err := s.repo.GetSnapshot(ctx, graphID)
	if err != nil {
		return graph.Snapshot{}, pkgerrors.NewTransportError("load graph snapshot "+graphID, err)
	}
	return snapshot, nil
}

// Persist writes a whole snapshot to the repository under the save timeout
func (s *SnapshotStore) Persist(ctx context.Context, graphID string, snapshot graph.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, saveSnapshotTimeout)
	defer cancel()
	if err := s.repo.SaveSnapshot(ctx, graphID, snapshot); err != nil {
		return pkgerrors.NewTransportError("save graph snapshot "+graphID, err)
	}
	return nil
}
