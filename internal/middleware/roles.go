package middleware

import (
	"net/http"

	"github.com/baharkarakas/payments-core/internal/api/httpx"
)

// RequireRole lets through only requests authenticated with the given role.
func RequireRole(need string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := Role(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
				return
			}
			if role != need {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", "requires role "+need, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
