package websocket

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cdm-backend/application/ports"
	"cdm-backend/domain/collab"
	"cdm-backend/pkg/auth"
)

// Server upgrades HTTP requests into relay connections. The handshake query
// carries graphId, role and token; the resolved role is fixed for the life
// of the connection.
type Server struct {
	hub      *Hub
	graphs   ports.GraphRepository
	layouts  ports.LayoutRepository
	secret   string
	limiter  auth.RateLimiter
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewServer creates a relay server over the given hub and repositories
func NewServer(hub *Hub, graphs ports.GraphRepository, layouts ports.LayoutRepository, secret string, logger *zap.Logger) *Server {
	return &Server{
		hub:     hub,
		graphs:  graphs,
		layouts: layouts,
		secret:  secret,
		limiter: auth.NewTokenBucketLimiter(30, time.Second),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// HandleWebSocket handles WebSocket upgrade requests
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	allowed, _ := s.limiter.Allow(r.Context(), clientIP(r))
	if !allowed {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	graphID := r.URL.Query().Get("graphId")
	if graphID == "" {
		http.Error(w, "graphId is required", http.StatusBadRequest)
		return
	}
	actor, role := s.resolveRole(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed",
			zap.Error(err),
			zap.String("remoteAddr", r.RemoteAddr),
		)
		return
	}

	client := NewClient(graphID, actor, role, s.hub, conn, s.graphs, s.layouts, s.logger)
	client.Start()
}

// resolveRole maps the handshake parameters to an identity. Editor requires
// both role=editor and a token that verifies; any failure degrades the
// connection to a viewer rather than rejecting it.
func (s *Server) resolveRole(r *http.Request) (string, collab.Role) {
	requested := collab.ParseRole(r.URL.Query().Get("role"))
	if requested != collab.RoleEditor {
		return "anonymous", collab.RoleViewer
	}
	if s.secret == "" {
		return "anonymous", collab.RoleEditor
	}
	subject, ok := auth.VerifyEditorToken(r.URL.Query().Get("token"), s.secret)
	if !ok {
		return "anonymous", collab.RoleViewer
	}
	return subject, collab.RoleEditor
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
