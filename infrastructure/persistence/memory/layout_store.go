package memory

import (
	"context"
	"sync"
	"time"

	"cdm-backend/domain/collab"
)

// LayoutStore keeps the collaborative layout state per graph id and acts as
// the version authority: every save stores version current+1 regardless of
// the version the caller sent.
type LayoutStore struct {
	mu      sync.RWMutex
	layouts map[string]collab.LayoutState
}

// NewLayoutStore creates an empty in-memory layout store
func NewLayoutStore() *LayoutStore {
	return &LayoutStore{layouts: make(map[string]collab.LayoutState)}
}

// GetLayout returns the stored state and whether one exists
func (s *LayoutStore) GetLayout(ctx context.Context, graphID string) (collab.LayoutState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.layouts[graphID]
	if !ok {
		return collab.LayoutState{}, false, nil
	}
	return state.Clone(), true, nil
}

// SaveLayout persists the state with the next version and returns the result
func (s *LayoutStore) SaveLayout(ctx context.Context, state collab.LayoutState) (collab.LayoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.layouts[state.GraphID]
	stored := state.Clone()
	stored.Version = current.Version + 1
	if stored.UpdatedAt == "" {
		stored.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	s.layouts[state.GraphID] = stored
	return stored.Clone(), nil
}
