package collab

import pkgerrors "cdm-backend/pkg/errors"

// LayoutMode selects the canvas layout algorithm
type LayoutMode string

const (
	ModeFree  LayoutMode = "free"
	ModeTree  LayoutMode = "tree"
	ModeLogic LayoutMode = "logic"
)

// ToggleKey names one of the canvas helper toggles
type ToggleKey string

const (
	ToggleSnap     ToggleKey = "snap"
	ToggleGrid     ToggleKey = "grid"
	ToggleGuide    ToggleKey = "guide"
	ToggleDistance ToggleKey = "distance"
)

// Role tags a collaborating session's write capability. It is assigned once
// at handshake and never re-derived per message.
type Role string

const (
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// ReadonlyReason is echoed back whenever a viewer attempts a mutation
const ReadonlyReason = "readonly client"

// LayoutState is the collaboration payload synchronized per graph id.
// Version is a monotonic integer and the sole conflict arbiter: a state with
// version <= the current one must never overwrite it.
type LayoutState struct {
	GraphID   string             `json:"graphId"`
	Mode      LayoutMode         `json:"mode"`
	Toggles   map[ToggleKey]bool `json:"toggles"`
	Version   int64              `json:"version"`
	UpdatedAt string             `json:"updatedAt,omitempty"`
	UpdatedBy string             `json:"updatedBy,omitempty"`
}

// DefaultLayoutState returns the initial layout for a graph that has never
// been laid out: free mode with distance lines off
func DefaultLayoutState(graphID string) LayoutState {
	return LayoutState{
		GraphID: graphID,
		Mode:    ModeFree,
		Toggles: map[ToggleKey]bool{
			ToggleSnap:     true,
			ToggleGrid:     true,
			ToggleGuide:    true,
			ToggleDistance: false,
		},
		Version: 0,
	}
}

// Clone copies the state including its toggle map
func (s LayoutState) Clone() LayoutState {
	out := s
	out.Toggles = make(map[ToggleKey]bool, len(s.Toggles))
	for k, v := range s.Toggles {
		out.Toggles[k] = v
	}
	return out
}

// ValidMode reports whether mode is one of the known layout modes
func ValidMode(mode LayoutMode) bool {
	switch mode {
	case ModeFree, ModeTree, ModeLogic:
		return true
	}
	return false
}

// ValidToggle reports whether key is one of the known toggles
func ValidToggle(key ToggleKey) bool {
	switch key {
	case ToggleSnap, ToggleGrid, ToggleGuide, ToggleDistance:
		return true
	}
	return false
}

// ParseRole maps the handshake role parameter to a Role, anything unknown
// degrading to viewer
func ParseRole(raw string) Role {
	if raw == string(RoleEditor) {
		return RoleEditor
	}
	return RoleViewer
}

// RequireEditor returns a permission error when the role cannot mutate
func RequireEditor(role Role) error {
	if role != RoleEditor {
		return pkgerrors.NewPermissionError(ReadonlyReason)
	}
	return nil
}
