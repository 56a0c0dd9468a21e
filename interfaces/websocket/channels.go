package websocket

import (
	"context"

	"cdm-backend/application/ports"
	"cdm-backend/domain/collab"
	"cdm-backend/domain/graph"
)

var (
	_ ports.LayoutChannel = (*NetworkChannels)(nil)
	_ ports.GraphChannel  = (*NetworkChannels)(nil)
)

// NetworkChannels adapts the hub to the broadcast ports so application
// sessions can publish without knowing about rooms or connections
type NetworkChannels struct {
	hub *Hub
}

// NewNetworkChannels creates the port adapter over a hub
func NewNetworkChannels(hub *Hub) *NetworkChannels {
	return &NetworkChannels{hub: hub}
}

// PublishLayout fans a layout state out to the graph's room
func (n *NetworkChannels) PublishLayout(ctx context.Context, state collab.LayoutState) error {
	payload, err := encodeLayoutSync(state)
	if err != nil {
		return err
	}
	n.hub.Broadcast(state.GraphID, nil, payload)
	return nil
}

// PublishGraph fans a snapshot out to the graph's room
func (n *NetworkChannels) PublishGraph(ctx context.Context, graphID string, snapshot graph.Snapshot) error {
	payload, err := encodeGraphSync(graphID, GraphPayload{Nodes: snapshot.Nodes, Edges: snapshot.Edges})
	if err != nil {
		return err
	}
	n.hub.Broadcast(graphID, nil, payload)
	return nil
}
