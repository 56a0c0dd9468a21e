package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// broadcast targets every connection in a graph room except the sender
type broadcast struct {
	graphID string
	exclude *Client
	payload []byte
}

// Hub maintains the graph rooms and fans messages out to their members
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcasts chan broadcast

	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

// NewHub creates a hub with no rooms
func NewHub(logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client, 100),
		unregister: make(chan *Client, 100),
		broadcasts: make(chan broadcast, 1000),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}
}

// Run starts the hub's main event loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case message := <-h.broadcasts:
			h.fanOut(message)
		}
	}
}

// Stop shuts the hub down and closes every connection
func (h *Hub) Stop() {
	h.cancel()
}

// Broadcast queues a message for every room member except exclude
func (h *Hub) Broadcast(graphID string, exclude *Client, payload []byte) {
	select {
	case h.broadcasts <- broadcast{graphID: graphID, exclude: exclude, payload: payload}:
	default:
		h.logger.Warn("broadcast queue full, message dropped", zap.String("graphId", graphID))
	}
}

// RoomSize returns the number of connections in a graph room
func (h *Hub) RoomSize(graphID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[graphID])
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[client.graphID] == nil {
		h.rooms[client.graphID] = make(map[*Client]bool)
	}
	h.rooms[client.graphID][client] = true
	h.logger.Info("client joined room",
		zap.String("graphId", client.graphID),
		zap.String("actor", client.actor),
		zap.String("role", string(client.role)),
		zap.Int("roomSize", len(h.rooms[client.graphID])),
	)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[client.graphID]
	if !ok {
		return
	}
	if _, ok := room[client]; !ok {
		return
	}
	delete(room, client)
	close(client.send)
	if len(room) == 0 {
		delete(h.rooms, client.graphID)
	}
	h.logger.Info("client left room",
		zap.String("graphId", client.graphID),
		zap.String("actor", client.actor),
	)
}

func (h *Hub) fanOut(message broadcast) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[message.graphID] {
		if client == message.exclude {
			continue
		}
		select {
		case client.send <- message.payload:
		default:
			h.logger.Warn("client send buffer full, dropping message",
				zap.String("graphId", message.graphID),
				zap.String("actor", client.actor),
			)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for graphID, room := range h.rooms {
		for client := range room {
			close(client.send)
			client.conn.Close()
		}
		delete(h.rooms, graphID)
	}
	h.logger.Info("hub stopped")
}
