package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/payments-core/internal/auth"
	"github.com/baharkarakas/payments-core/internal/logger"
)

func echoUser(w http.ResponseWriter, r *http.Request) {
	uid, _ := UserID(r.Context())
	role, _ := Role(r.Context())
	_, _ = w.Write([]byte(uid + "|" + role))
}

func TestAuth(t *testing.T) {
	tm := auth.NewTokenManager("payments-core", "a", "r", time.Minute, time.Hour)
	access, refresh, _, err := tm.GeneratePair("user-42", auth.RoleOperator)
	require.NoError(t, err)

	tests := []struct {
		name   string
		env    string
		header string
		status int
		body   string
	}{
		{"missing header", "dev", "", http.StatusUnauthorized, ""},
		{"dev shortcut", "dev", "Bearer dev-user-7", http.StatusOK, "user-7|user"},
		{"dev shortcut off in prod", "prod", "Bearer dev-user-7", http.StatusUnauthorized, ""},
		{"access token", "prod", "Bearer " + access, http.StatusOK, "user-42|operator"},
		{"lowercase scheme", "prod", "bearer " + access, http.StatusOK, "user-42|operator"},
		{"refresh token refused", "prod", "Bearer " + refresh, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthMiddleware(tm, tt.env).Auth(http.HandlerFunc(echoUser))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(auth.RoleOperator)(http.HandlerFunc(echoUser))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), "u", auth.RoleUser)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), "u", auth.RoleOperator)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestID_PropagatesCorrelation(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.CorrelationID(r.Context())
		assert.NotEmpty(t, logger.RequestID(r.Context()))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderCorrelationID, "corr-abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "corr-abc", seen)
	assert.Equal(t, "corr-abc", rec.Header().Get(HeaderCorrelationID))
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(HeaderCorrelationID))
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	abort := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) }))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		abort.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRateLimit(t *testing.T) {
	clock := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	l := newLimiter(2, func() time.Time { return clock })
	h := l.middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = call("10.0.0.1:5000").Code
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	rec := call("10.0.0.1:5001")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "same host on another port shares the bucket")
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:5000").Code, "other clients keep their own bucket")

	clock = clock.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5000").Code)

	clock = clock.Add(bucketIdle)
	assert.Equal(t, http.StatusNoContent, call("10.0.0.3:5000").Code)
	assert.Equal(t, 1, l.size(), "idle buckets are dropped")
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(0)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))
	for range 5 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}
