package ports

import (
	"context"

	"cdm-backend/domain/collab"
	"cdm-backend/domain/graph"
)

// LayoutChannel is one broadcast transport for layout state: either the
// same-device tab channel or the networked peer channel. The two are
// independent; the collaboration session decides which to publish on.
type LayoutChannel interface {
	PublishLayout(ctx context.Context, state collab.LayoutState) error
}

// GraphChannel broadcasts whole graph snapshots to peers
type GraphChannel interface {
	PublishGraph(ctx context.Context, graphID string, snapshot graph.Snapshot) error
}
