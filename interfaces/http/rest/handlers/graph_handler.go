// Package handlers holds the REST handlers for graphs, layouts and telemetry.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"cdm-backend/application/ports"
	"cdm-backend/domain/graph"
	"cdm-backend/domain/scheduling"
	"cdm-backend/pkg/common"
	pkgerrors "cdm-backend/pkg/errors"
)

// GraphHandler serves snapshot reads and whole-snapshot writes
type GraphHandler struct {
	repo     ports.GraphRepository
	audit    ports.AuditLog
	peers    ports.GraphChannel
	validate *validator.Validate
	logger   *zap.Logger
}

// NewGraphHandler creates a graph handler. peers may be nil when no relay
// is attached.
func NewGraphHandler(repo ports.GraphRepository, audit ports.AuditLog, peers ports.GraphChannel, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		repo:     repo,
		audit:    audit,
		peers:    peers,
		validate: validator.New(),
		logger:   logger,
	}
}

type graphPayload struct {
	Nodes []graph.Node `json:"nodes" validate:"required"`
	Edges []graph.Edge `json:"edges" validate:"required"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// ListGraphs returns every stored graph id
func (h *GraphHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	ids, err := h.repo.ListGraphIDs(r.Context())
	if err != nil {
		h.logger.Error("list graphs failed", zap.Error(err))
		common.RespondAppError(w, pkgerrors.NewTransportError("list graphs", err))
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"graphIds": ids})
}

// GetGraph returns the stored snapshot. An unknown graph id yields empty
// arrays with 200, never 404; clients treat absence as an empty graph.
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	snapshot, err := h.repo.GetSnapshot(r.Context(), graphID)
	if err != nil {
		h.logger.Error("get snapshot failed", zap.String("graphId", graphID), zap.Error(err))
		common.RespondAppError(w, pkgerrors.NewTransportError("get graph "+graphID, err))
		return
	}
	if snapshot.Nodes == nil {
		snapshot.Nodes = []graph.Node{}
	}
	if snapshot.Edges == nil {
		snapshot.Edges = []graph.Edge{}
	}
	common.RespondJSON(w, http.StatusOK, graphPayload{Nodes: snapshot.Nodes, Edges: snapshot.Edges})
}

// PutGraph replaces the stored snapshot for the graph id
func (h *GraphHandler) PutGraph(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	var payload graphPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid graph payload"))
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("graph payload must carry nodes and edges"))
		return
	}
	snapshot := graph.Snapshot{Nodes: payload.Nodes, Edges: payload.Edges}
	if err := h.repo.SaveSnapshot(r.Context(), graphID, snapshot); err != nil {
		h.logger.Error("save snapshot failed", zap.String("graphId", graphID), zap.Error(err))
		common.RespondAppError(w, pkgerrors.NewTransportError("save graph "+graphID, err))
		return
	}
	h.appendAudit(r, "graph.replace", graphID, map[string]interface{}{
		"nodes": len(payload.Nodes),
		"edges": len(payload.Edges),
	})
	if h.peers != nil {
		if err := h.peers.PublishGraph(r.Context(), graphID, snapshot); err != nil {
			h.logger.Debug("graph broadcast failed", zap.String("graphId", graphID), zap.Error(err))
		}
	}
	common.RespondJSON(w, http.StatusOK, okResponse{OK: true})
}

// GetBlocked runs the dependency validator over the stored snapshot
func (h *GraphHandler) GetBlocked(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	snapshot, err := h.repo.GetSnapshot(r.Context(), graphID)
	if err != nil {
		h.logger.Error("get snapshot failed", zap.String("graphId", graphID), zap.Error(err))
		common.RespondAppError(w, pkgerrors.NewTransportError("get graph "+graphID, err))
		return
	}
	statuses := scheduling.Validate(snapshot.Nodes, snapshot.Edges)
	common.RespondJSON(w, http.StatusOK, statuses)
}

func (h *GraphHandler) appendAudit(r *http.Request, action, target string, metadata map[string]interface{}) {
	if h.audit == nil {
		return
	}
	actor, _ := common.GetActor(r.Context())
	if actor == "" {
		actor = "anonymous"
	}
	if requestID := common.ExtractRequestID(r); requestID != "" {
		metadata["requestId"] = requestID
	}
	event := ports.AuditEvent{
		ID:        newEventID(),
		Actor:     actor,
		Action:    action,
		Target:    target,
		CreatedAt: nowRFC3339(),
		Metadata:  metadata,
	}
	if err := h.audit.Append(r.Context(), event); err != nil {
		h.logger.Debug("audit append failed", zap.Error(err))
	}
}
