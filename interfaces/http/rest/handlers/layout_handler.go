package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"cdm-backend/application/ports"
	"cdm-backend/domain/collab"
	"cdm-backend/pkg/common"
	pkgerrors "cdm-backend/pkg/errors"
)

// LayoutHandler serves the collaborative layout state
type LayoutHandler struct {
	repo     ports.LayoutRepository
	peers    ports.LayoutChannel
	validate *validator.Validate
	logger   *zap.Logger
}

// NewLayoutHandler creates a layout handler. peers may be nil when no relay
// is attached.
func NewLayoutHandler(repo ports.LayoutRepository, peers ports.LayoutChannel, logger *zap.Logger) *LayoutHandler {
	return &LayoutHandler{repo: repo, peers: peers, validate: validator.New(), logger: logger}
}

// layoutResponse wraps the state with an existence marker so clients can
// tell a default from a stored layout
type layoutResponse struct {
	Found  bool               `json:"found"`
	Layout collab.LayoutState `json:"layout"`
}

type layoutPayload struct {
	Mode      string          `json:"mode" validate:"required,oneof=free tree logic"`
	Toggles   map[string]bool `json:"toggles" validate:"required"`
	UpdatedBy string          `json:"updatedBy"`
}

// GetLayout returns the stored layout or the default with found=false
func (h *LayoutHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	state, found, err := h.repo.GetLayout(r.Context(), graphID)
	if err != nil {
		h.logger.Error("get layout failed", zap.String("graphId", graphID), zap.Error(err))
		common.RespondAppError(w, pkgerrors.NewTransportError("get layout "+graphID, err))
		return
	}
	if !found {
		common.RespondJSON(w, http.StatusOK, layoutResponse{
			Found:  false,
			Layout: collab.DefaultLayoutState(graphID),
		})
		return
	}
	common.RespondJSON(w, http.StatusOK, layoutResponse{Found: true, Layout: state})
}

// PutLayout persists a layout edit. The store assigns the version; any
// version in the payload is ignored.
func (h *LayoutHandler) PutLayout(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	var payload layoutPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid layout payload"))
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("layout payload must carry a valid mode and toggles"))
		return
	}

	toggles := make(map[collab.ToggleKey]bool, len(payload.Toggles))
	for key, value := range payload.Toggles {
		toggleKey := collab.ToggleKey(key)
		if !collab.ValidToggle(toggleKey) {
			common.RespondAppError(w, pkgerrors.NewValidationError("unknown toggle: "+key))
			return
		}
		toggles[toggleKey] = value
	}

	updatedBy := payload.UpdatedBy
	if updatedBy == "" {
		if actor, ok := common.GetActor(r.Context()); ok {
			updatedBy = actor
		}
	}

	stored, err := h.repo.SaveLayout(r.Context(), collab.LayoutState{
		GraphID:   graphID,
		Mode:      collab.LayoutMode(payload.Mode),
		Toggles:   toggles,
		UpdatedBy: updatedBy,
		UpdatedAt: nowRFC3339(),
	})
	if err != nil {
		h.logger.Error("save layout failed", zap.String("graphId", graphID), zap.Error(err))
		common.RespondAppError(w, pkgerrors.NewTransportError("save layout "+graphID, err))
		return
	}
	if h.peers != nil {
		if err := h.peers.PublishLayout(r.Context(), stored); err != nil {
			h.logger.Debug("layout broadcast failed", zap.String("graphId", graphID), zap.Error(err))
		}
	}
	common.RespondJSON(w, http.StatusOK, layoutResponse{Found: true, Layout: stored})
}
