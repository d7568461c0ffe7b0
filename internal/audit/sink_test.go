package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/payments-core/internal/metrics"
	"github.com/baharkarakas/payments-core/internal/models"
	"github.com/baharkarakas/payments-core/internal/repository/memory"
	"github.com/baharkarakas/payments-core/internal/worker"
)

func TestAsyncSink_PersistsRecord(t *testing.T) {
	store := memory.NewAuditLogs()
	pool := worker.NewPool(2, 8)
	sink := NewAsyncSink(store, pool)

	sink.Record(context.Background(), "transaction.created", "user-1", "tx-1", map[string]any{"amount": "10"})
	pool.Stop()

	logs, err := store.ListByEntity(context.Background(), "tx-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "transaction.created", logs[0].Action)
	assert.Equal(t, "user-1", logs[0].Actor)
	assert.Equal(t, EntityTransaction, logs[0].EntityType)
	assert.Equal(t, "10", logs[0].Details["amount"])
}

type failingStore struct{ memory.AuditLogs }

func (*failingStore) Create(context.Context, models.AuditLog) error { return errors.New("disk full") }

func TestAsyncSink_WriteFailureIsCounted(t *testing.T) {
	before := testutil.ToFloat64(metrics.AuditDropped)
	pool := worker.NewPool(1, 1)
	sink := NewAsyncSink(&failingStore{}, pool)

	sink.Record(context.Background(), "transaction.failed", "user-1", "tx-2", nil)
	pool.Stop()

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.AuditDropped))
}

func TestAsyncSink_StoppedPoolDropsWithoutBlocking(t *testing.T) {
	before := testutil.ToFloat64(metrics.AuditDropped)
	store := memory.NewAuditLogs()
	pool := worker.NewPool(1, 1)
	pool.Stop()

	NewAsyncSink(store, pool).Record(context.Background(), "transaction.created", "user-1", "tx-3", nil)

	assert.Empty(t, store.All())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.AuditDropped))
}
