package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cdm-backend/application/ports"
	"cdm-backend/domain/collab"
	"cdm-backend/domain/graph"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024

	// Send buffer size
	sendBufferSize = 256

	persistTimeout = 2 * time.Second
)

// Client represents one WebSocket connection in a graph room
type Client struct {
	id      string
	graphID string
	actor   string
	role    collab.Role
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	graphs  ports.GraphRepository
	layouts ports.LayoutRepository
	logger  *zap.Logger
}

// NewClient creates a client for an upgraded connection
func NewClient(graphID, actor string, role collab.Role, hub *Hub, conn *websocket.Conn, graphs ports.GraphRepository, layouts ports.LayoutRepository, logger *zap.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		id:      id,
		graphID: graphID,
		actor:   actor,
		role:    role,
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		graphs:  graphs,
		layouts: layouts,
		logger: logger.With(
			zap.String("connectionId", id),
			zap.String("graphId", graphID),
			zap.String("actor", actor),
		),
	}
}

// Start registers with the hub and begins the read and write pumps
func (c *Client) Start() {
	c.hub.register <- c
	go c.writePump()
	go c.readPump()
}

// readPump pumps messages from the connection into the relay
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket read error", zap.Error(err))
			}
			break
		}
		if messageType != websocket.TextMessage {
			c.logger.Warn("binary messages not supported")
			continue
		}
		c.handleMessage(bytes.TrimSpace(message))
	}
}

// writePump pumps messages from the hub to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("websocket write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches one inbound relay message
func (c *Client) handleMessage(message []byte) {
	var envelope Envelope
	if err := json.Unmarshal(message, &envelope); err != nil {
		c.reply(encodeError("invalid message"))
		return
	}

	switch envelope.Type {
	case TypeLayoutUpdate:
		c.handleLayoutUpdate(envelope)
	case TypeGraphUpdate:
		c.handleGraphUpdate(envelope)
	default:
		c.logger.Debug("unknown message type", zap.String("type", envelope.Type))
	}
}

// handleLayoutUpdate persists an editor's layout edit for an authoritative
// version and fans the stored state out to the rest of the room
func (c *Client) handleLayoutUpdate(envelope Envelope) {
	if c.role != collab.RoleEditor {
		c.reply(encodeError(collab.ReadonlyReason))
		return
	}
	if envelope.State == nil {
		c.reply(encodeError("invalid layout payload"))
		return
	}
	state := *envelope.State
	state.GraphID = c.graphID
	state.UpdatedBy = c.actor

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	stored, err := c.layouts.SaveLayout(ctx, state)
	if err != nil {
		c.logger.Warn("layout save failed", zap.Error(err))
		c.reply(encodeError("layout save failed"))
		return
	}

	sync, err := encodeLayoutSync(stored)
	if err != nil {
		c.logger.Error("encode layout sync failed", zap.Error(err))
		return
	}
	c.hub.Broadcast(c.graphID, c, sync)
	// The sender gets the stored state too, so its local version matches
	// the version the store assigned.
	c.reply(sync)
}

// handleGraphUpdate persists an editor's snapshot and fans it out
func (c *Client) handleGraphUpdate(envelope Envelope) {
	if c.role != collab.RoleEditor {
		c.reply(encodeError(collab.ReadonlyReason))
		return
	}
	if envelope.Snapshot == nil {
		c.reply(encodeError("invalid graph payload"))
		return
	}
	payload := *envelope.Snapshot
	if payload.Nodes == nil {
		payload.Nodes = []graph.Node{}
	}
	if payload.Edges == nil {
		payload.Edges = []graph.Edge{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	snapshot := graph.Snapshot{Nodes: payload.Nodes, Edges: payload.Edges}
	if err := c.graphs.SaveSnapshot(ctx, c.graphID, snapshot); err != nil {
		c.logger.Warn("graph save failed", zap.Error(err))
		c.reply(encodeError("graph save failed"))
		return
	}

	sync, err := encodeGraphSync(c.graphID, payload)
	if err != nil {
		c.logger.Error("encode graph sync failed", zap.Error(err))
		return
	}
	c.hub.Broadcast(c.graphID, c, sync)
}

func (c *Client) reply(payload []byte) {
	select {
	case c.send <- payload:
	default:
		c.logger.Warn("send buffer full, dropping reply")
	}
}

// GetID returns the connection id
func (c *Client) GetID() string { return c.id }
