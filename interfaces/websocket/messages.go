// Package websocket relays graph and layout updates between the clients
// collaborating on a graph. Connections join a room per graph id; mutations
// from editor connections are persisted and fanned out to the rest of the
// room, viewer mutations are answered with an error message.
package websocket

import (
	"encoding/json"

	"cdm-backend/domain/collab"
	"cdm-backend/domain/graph"
)

// Message types on the wire
const (
	TypeLayoutUpdate = "layout-update"
	TypeLayoutSync   = "layout-sync"
	TypeGraphUpdate  = "graph-update"
	TypeGraphSync    = "graph-sync"
	TypeError        = "error"
)

// Envelope is the flat shape of every relay message: layout messages carry
// state, graph messages carry snapshot, updates may name the sending actor.
type Envelope struct {
	Type     string              `json:"type"`
	GraphID  string              `json:"graphId,omitempty"`
	State    *collab.LayoutState `json:"state,omitempty"`
	Snapshot *GraphPayload       `json:"snapshot,omitempty"`
	Actor    string              `json:"actor,omitempty"`
}

// GraphPayload carries a whole snapshot
type GraphPayload struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

// ErrorMessage is sent back to the offending connection only
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func encodeLayoutSync(state collab.LayoutState) ([]byte, error) {
	return json.Marshal(Envelope{Type: TypeLayoutSync, GraphID: state.GraphID, State: &state})
}

func encodeGraphSync(graphID string, payload GraphPayload) ([]byte, error) {
	return json.Marshal(Envelope{Type: TypeGraphSync, GraphID: graphID, Snapshot: &payload})
}

func encodeError(message string) []byte {
	raw, _ := json.Marshal(ErrorMessage{Type: TypeError, Message: message})
	return raw
}
