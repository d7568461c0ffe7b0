package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/baharkarakas/payments-core/internal/api/httpx"
)

// bucketIdle is how long a client bucket may go unused before it is dropped.
const bucketIdle = 5 * time.Minute

type bucket struct {
	tokens int
	last   time.Time
}

// limiter keeps one token bucket per client address. Every bucket refills at
// rate tokens per second up to burst.
type limiter struct {
	mu        sync.Mutex
	rate      int
	burst     int
	now       func() time.Time
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLimiter(rps int, now func() time.Time) *limiter {
	return &limiter{
		rate:      rps,
		burst:     rps,
		now:       now,
		buckets:   make(map[string]*bucket),
		lastSweep: now(),
	}
}

func (l *limiter) allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= bucketIdle {
		for k, b := range l.buckets {
			if now.Sub(b.last) >= bucketIdle {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[client]
	if !ok {
		b = &bucket{tokens: l.burst, last: now}
		l.buckets[client] = b
	}
	if refill := int(now.Sub(b.last).Seconds() * float64(l.rate)); refill > 0 {
		b.tokens += refill
		if b.tokens > l.burst {
			b.tokens = l.burst
		}
		b.last = now
	}
	if b.tokens == 0 {
		return false
	}
	b.tokens--
	return true
}

func (l *limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *limiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientAddr(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(1))
			httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit allows each client address rps requests per second. A
// non-positive rps disables limiting.
func RateLimit(rps int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return newLimiter(rps, time.Now).middleware
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
