package common

import (
	"encoding/json"
	"net/http"

	pkgerrors "cdm-backend/pkg/errors"
)

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// errorBody wraps ErrorInfo for the wire
type errorBody struct {
	Error ErrorInfo `json:"error"`
}

// RespondJSON writes a JSON body as-is. Graph and layout payloads go over
// the wire unwrapped; clients depend on the exact shape.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error body with the given status
func RespondError(w http.ResponseWriter, status int, code, message string) {
	RespondJSON(w, status, errorBody{Error: ErrorInfo{Code: code, Message: message}})
}

// RespondAppError maps an application error to its HTTP status and body.
// Anything that is not an AppError becomes an opaque 500.
func RespondAppError(w http.ResponseWriter, err error) {
	appErr, ok := err.(*pkgerrors.AppError)
	if !ok {
		RespondError(w, http.StatusInternalServerError, string(pkgerrors.ErrorTypeInternal), "internal error")
		return
	}
	RespondJSON(w, pkgerrors.GetHTTPStatus(appErr), errorBody{Error: ErrorInfo{
		Code:    string(appErr.Type),
		Message: appErr.Message,
		Details: appErr.Details,
	}})
}

// ExtractRequestID extracts the request ID from headers
func ExtractRequestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	if id := r.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	if id := r.Header.Get("X-Amzn-Trace-Id"); id != "" {
		return id
	}
	return ""
}
