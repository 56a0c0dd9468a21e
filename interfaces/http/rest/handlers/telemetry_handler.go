package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"cdm-backend/application/ports"
	"cdm-backend/pkg/common"
	pkgerrors "cdm-backend/pkg/errors"
)

// VisitStore is a visit sink whose buffer can be read back
type VisitStore interface {
	ports.VisitSink
	Visits() []ports.VisitLog
}

// MetricStore is a metric sink whose buffer can be read back
type MetricStore interface {
	ports.MetricSink
	Metrics() []ports.PerfMetric
}

// TelemetryHandler ingests visit logs and perf metrics and serves them back
// together with the audit trail
type TelemetryHandler struct {
	visits   VisitStore
	metrics  MetricStore
	audit    ports.AuditLog
	validate *validator.Validate
	logger   *zap.Logger
}

// NewTelemetryHandler creates a telemetry handler
func NewTelemetryHandler(visits VisitStore, metrics MetricStore, audit ports.AuditLog, logger *zap.Logger) *TelemetryHandler {
	return &TelemetryHandler{
		visits:   visits,
		metrics:  metrics,
		audit:    audit,
		validate: validator.New(),
		logger:   logger,
	}
}

type visitPayload struct {
	Visitor        string                 `json:"visitor" validate:"required"`
	NodeID         string                 `json:"nodeId"`
	GraphID        string                 `json:"graphId" validate:"required"`
	Action         string                 `json:"action" validate:"required"`
	Classification string                 `json:"classification"`
	Metadata       map[string]interface{} `json:"metadata"`
}

type metricPayload struct {
	Name    string                 `json:"name" validate:"required"`
	Value   float64                `json:"value"`
	Context map[string]interface{} `json:"context"`
}

// PostVisit ingests one visit log
func (h *TelemetryHandler) PostVisit(w http.ResponseWriter, r *http.Request) {
	var payload visitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid visit payload"))
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("visit payload must carry visitor, graphId and action"))
		return
	}
	visit := ports.VisitLog{
		ID:             newEventID(),
		Visitor:        payload.Visitor,
		NodeID:         payload.NodeID,
		GraphID:        payload.GraphID,
		Action:         payload.Action,
		Classification: payload.Classification,
		HappenedAt:     nowRFC3339(),
		UserAgent:      r.UserAgent(),
		IP:             r.RemoteAddr,
		Metadata:       payload.Metadata,
	}
	if err := h.visits.RecordVisit(r.Context(), visit); err != nil {
		h.logger.Warn("record visit failed", zap.Error(err))
	}
	common.RespondJSON(w, http.StatusAccepted, okResponse{OK: true})
}

// ListVisits returns the buffered visit logs, paged in insertion order
func (h *TelemetryHandler) ListVisits(w http.ResponseWriter, r *http.Request) {
	all := h.visits.Visits()
	params := common.ExtractPaginationParams(r)
	start, end := params.Slice(len(all))
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"visits":     all[start:end],
		"pagination": common.BuildPaginationMeta(params.Page, params.PageSize, len(all)),
	})
}

// PostMetric ingests one perf metric
func (h *TelemetryHandler) PostMetric(w http.ResponseWriter, r *http.Request) {
	var payload metricPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid metric payload"))
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("metric payload must carry a name"))
		return
	}
	metric := ports.PerfMetric{
		Name:       payload.Name,
		Value:      payload.Value,
		RecordedAt: nowRFC3339(),
		Context:    payload.Context,
	}
	if err := h.metrics.RecordMetric(r.Context(), metric); err != nil {
		h.logger.Warn("record metric failed", zap.Error(err))
	}
	common.RespondJSON(w, http.StatusAccepted, okResponse{OK: true})
}

// ListMetrics returns the buffered perf metrics
func (h *TelemetryHandler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	all := h.metrics.Metrics()
	params := common.ExtractPaginationParams(r)
	start, end := params.Slice(len(all))
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"metrics":    all[start:end],
		"pagination": common.BuildPaginationMeta(params.Page, params.PageSize, len(all)),
	})
}

// ListAuditEvents returns the stored audit events
func (h *TelemetryHandler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	all, err := h.audit.Events(r.Context())
	if err != nil {
		common.RespondAppError(w, pkgerrors.NewTransportError("list audit events", err))
		return
	}
	params := common.ExtractPaginationParams(r)
	start, end := params.Slice(len(all))
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"events":     all[start:end],
		"pagination": common.BuildPaginationMeta(params.Page, params.PageSize, len(all)),
	})
}
