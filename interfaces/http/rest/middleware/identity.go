package middleware

import (
	"net/http"
	"strings"

	"cdm-backend/domain/collab"
	"cdm-backend/pkg/auth"
	"cdm-backend/pkg/common"
	pkgerrors "cdm-backend/pkg/errors"
)

// Identity resolves the acting participant and role from an optional Bearer
// token. A valid HS256 token signed with secret grants editor; anything else
// degrades to an anonymous viewer. With an empty secret (local development)
// every request is an editor.
func Identity(secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := "anonymous"
			role := collab.RoleViewer
			if secret == "" {
				role = collab.RoleEditor
			} else if subject, ok := auth.VerifyEditorToken(bearerToken(r), secret); ok {
				actor = subject
				role = collab.RoleEditor
			}
			ctx := common.WithActor(r.Context(), actor)
			ctx = common.WithRole(ctx, string(role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireEditor rejects mutations from sessions without the editor role
func RequireEditor() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := common.GetRole(r.Context())
			if role != string(collab.RoleEditor) {
				common.RespondAppError(w, pkgerrors.NewPermissionError(collab.ReadonlyReason))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		header = r.Header.Get("authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
