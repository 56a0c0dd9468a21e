// Package memory provides in-process implementations of the persistence
// ports, used for local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"cdm-backend/domain/graph"
)

// GraphStore keeps whole snapshots per graph id behind an RWMutex. Snapshots
// are deep-copied on the way in and out so callers cannot alias store state.
type GraphStore struct {
	mu        sync.RWMutex
	snapshots map[string]graph.Snapshot
}

// NewGraphStore creates an empty in-memory graph store
func NewGraphStore() *GraphStore {
	return &GraphStore{snapshots: make(map[string]graph.Snapshot)}
}

// GetSnapshot returns the stored snapshot. A graph id that was never written
// yields an empty snapshot, not an error.
func (s *GraphStore) GetSnapshot(ctx context.Context, graphID string) (graph.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[graphID]
	if !ok {
		return graph.Snapshot{Nodes: []graph.Node{}, Edges: []graph.Edge{}}, nil
	}
	return snapshot.Clone(), nil
}

// SaveSnapshot replaces the stored snapshot for the graph id
func (s *GraphStore) SaveSnapshot(ctx context.Context, graphID string, snapshot graph.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[graphID] = snapshot.Clone()
	return nil
}

// ListGraphIDs returns every stored graph id in stable order
func (s *GraphStore) ListGraphIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.snapshots))
	for id := range s.snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
