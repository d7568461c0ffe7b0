package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/baharkarakas/payments-core/internal/api/httpx"
	"github.com/baharkarakas/payments-core/internal/logger"
	"github.com/baharkarakas/payments-core/internal/metrics"
)

// Recover turns a handler panic into a 500. http.ErrAbortHandler is passed
// through so the server still drops the connection.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			route := routePattern(r)
			metrics.RequestsTotal.WithLabelValues(route, r.Method, "panic").Inc()
			logger.L(r.Context()).Error("panic", "route", route, "err", rec, "stack", string(debug.Stack()))
			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
		}()
		next.ServeHTTP(w, r)
	})
}
