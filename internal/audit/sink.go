// Package audit persists audit records off the request path.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/baharkarakas/payments-core/internal/logger"
	"github.com/baharkarakas/payments-core/internal/metrics"
	"github.com/baharkarakas/payments-core/internal/models"
	repo "github.com/baharkarakas/payments-core/internal/repository"
	"github.com/baharkarakas/payments-core/internal/worker"
)

const (
	EntityTransaction = "transaction"
	writeTimeout      = 5 * time.Second
)

// AsyncSink logs every record as an AUDIT line and hands the write to a
// worker pool. A full queue or a failed write is logged and counted; the
// caller never sees it.
type AsyncSink struct {
	store repo.AuditLogs
	pool  *worker.Pool
	now   func() time.Time
}

func NewAsyncSink(store repo.AuditLogs, pool *worker.Pool) *AsyncSink {
	return &AsyncSink{store: store, pool: pool, now: time.Now}
}

func (s *AsyncSink) Record(ctx context.Context, action, actor, resource string, details map[string]any) {
	log := logger.L(ctx)
	log.Info("AUDIT",
		slog.String("action", action),
		slog.String("actor", actor),
		slog.String("resource", resource),
		slog.Any("details", details),
	)

	entry := models.AuditLog{
		EntityType: EntityTransaction,
		EntityID:   &resource,
		Action:     action,
		Actor:      actor,
		Details:    details,
		CreatedAt:  s.now(),
	}
	queued := s.pool.TrySubmit(func() {
		wctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := s.store.Create(wctx, entry); err != nil {
			metrics.AuditDropped.Inc()
			log.Error("audit write failed", "action", action, "resource", resource, "err", err)
		}
	})
	if !queued {
		metrics.AuditDropped.Inc()
		log.Warn("audit queue full, record dropped", "action", action, "resource", resource)
	}
}
