package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/baharkarakas/payments-core/internal/logger"
)

const (
	HeaderRequestID     = "X-Request-Id"
	HeaderCorrelationID = "X-Correlation-Id"
)

const maxCorrelationIDLength = 128

// RequestID mints a request id per call and threads the caller's correlation
// id (or a fresh one) through the context and the response headers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		corr := r.Header.Get(HeaderCorrelationID)
		if corr == "" || len(corr) > maxCorrelationIDLength {
			corr = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		w.Header().Set(HeaderCorrelationID, corr)

		ctx := logger.WithRequestID(r.Context(), id)
		ctx = logger.WithCorrelationID(ctx, corr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
