package workspace

import (
	"cdm-backend/domain/collab"
	pkgerrors "cdm-backend/pkg/errors"
)

// Decision is the result of the capability check every mutating operation
// funnels through. Call sites never re-derive readonly state themselves.
type Decision struct {
	Allowed bool
	Reason  string
}

// Err converts a denied decision into a permission error
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return pkgerrors.NewPermissionError(d.Reason)
}

// guard checks the session's write capability once per operation
func (w *Workspace) guard() Decision {
	if w.role != collab.RoleEditor {
		return Decision{Allowed: false, Reason: collab.ReadonlyReason}
	}
	return Decision{Allowed: true}
}
