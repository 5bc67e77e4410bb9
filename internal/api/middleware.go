// Package api implements the Foliant REST API using chi.
package api

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey int

const ownerKey ctxKey = iota

// OwnerFromContext returns the owner id resolved by the auth middleware.
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey).(string)
	return owner
}

// withOwner is exported for tests via httptest setups.
func withOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey, ownerID)
}

// AuthMiddleware resolves the request's owner identity.
// With enabled=false every request is attributed to defaultOwner (single-user
// mode). With enabled=true the request must carry "Authorization: Bearer
// <token>" where the token maps to an owner; anything else is rejected before
// reaching a handler.
func AuthMiddleware(enabled bool, defaultOwner string, tokenOwners map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r.WithContext(withOwner(r.Context(), defaultOwner)))
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			owner, ok := tokenOwners[strings.TrimPrefix(auth, "Bearer ")]
			if !ok || owner == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r.WithContext(withOwner(r.Context(), owner)))
		})
	}
}
