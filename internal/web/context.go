package web

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/academia/internal/core"
)

// withActor records the X-Actor-ID header, the profile id of the admin
// using the dashboard, so new jobs are attributed to them. Invalid values
// are ignored.
func withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := strings.TrimSpace(r.Header.Get("X-Actor-ID")); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				r = r.WithContext(core.ContextWithActor(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}
