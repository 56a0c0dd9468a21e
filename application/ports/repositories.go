package ports

import (
	"context"

	"cdm-backend/domain/collab"
	"cdm-backend/domain/graph"
)

// GraphRepository is the external key-value store holding whole snapshots
// keyed by graph id. Writes are always whole-snapshot replacements.
// This is a port in hexagonal architecture - the domain doesn't know about
// the implementation.
type GraphRepository interface {
	// GetSnapshot returns the stored snapshot, or an empty one when the
	// graph id has never been written
	GetSnapshot(ctx context.Context, graphID string) (graph.Snapshot, error)

	// SaveSnapshot replaces the stored snapshot for the graph id
	SaveSnapshot(ctx context.Context, graphID string, snapshot graph.Snapshot) error

	// ListGraphIDs returns every graph id with a stored snapshot
	ListGraphIDs(ctx context.Context) ([]string, error)
}

// LayoutRepository stores the collaborative layout state per graph id.
// Saving assigns the authoritative next version; the caller's version field
// is ignored so the store stays the single version authority.
type LayoutRepository interface {
	// GetLayout returns the stored state and whether one exists
	GetLayout(ctx context.Context, graphID string) (collab.LayoutState, bool, error)

	// SaveLayout persists the state with version bumped to current+1 and
	// returns the stored result
	SaveLayout(ctx context.Context, state collab.LayoutState) (collab.LayoutState, error)
}
