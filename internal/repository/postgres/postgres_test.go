package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/payments-core/internal/models"
	repo "github.com/baharkarakas/payments-core/internal/repository"
	"github.com/baharkarakas/payments-core/internal/testutil"
)

func newTx(key, user string, amount string, at time.Time) models.Transaction {
	return models.Transaction{
		ID:                  uuid.NewString(),
		Amount:              decimal.RequireFromString(amount),
		CounterpartyKey:     "a@b.io",
		CounterpartyKeyType: models.KeyEmail,
		Direction:           models.DirectionOutbound,
		State:               models.StateCreated,
		UserID:              user,
		IdempotencyKey:      key,
		CorrelationID:       "corr",
		CreatedAt:           at,
		UpdatedAt:           at,
	}
}

func TestTransactions_CreateIsIdempotent(t *testing.T) {
	repos := NewRepositories(testutil.PGTest(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	first, created, err := repos.Transactions.Create(ctx, newTx("K", "u1", "150.00", now))
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, first.Amount.Equal(decimal.RequireFromString("150")))

	second, created, err := repos.Transactions.Create(ctx, newTx("K", "u1", "999.00", now))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Amount.Equal(first.Amount))
}

func TestTransactions_ConcurrentCreateSameKey(t *testing.T) {
	repos := NewRepositories(testutil.PGTest(t))
	ctx := context.Background()
	now := time.Now().UTC()

	const n = 10
	ids := make([]string, n)
	createdCount := 0
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stored, created, err := repos.Transactions.Create(ctx, newTx("race", "u1", "10", now))
			require.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			ids[i] = stored.ID
			if created {
				createdCount++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestTransactions_GuardedStateUpdate(t *testing.T) {
	repos := NewRepositories(testutil.PGTest(t))
	ctx := context.Background()
	now := time.Now().UTC()

	tx, _, err := repos.Transactions.Create(ctx, newTx("g1", "u1", "10", now))
	require.NoError(t, err)

	updated, err := repos.Transactions.UpdateState(ctx, tx.ID, models.StateCreated, models.StateProcessing, nil, now)
	require.NoError(t, err)
	assert.Equal(t, models.StateProcessing, updated.State)

	_, err = repos.Transactions.UpdateState(ctx, tx.ID, models.StateCreated, models.StateCanceled, nil, now)
	assert.ErrorIs(t, err, repo.ErrStateConflict)

	_, err = repos.Transactions.UpdateState(ctx, uuid.NewString(), models.StateCreated, models.StateCanceled, nil, now)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	reason := "execution_error"
	failed, err := repos.Transactions.UpdateState(ctx, tx.ID, models.StateProcessing, models.StateFailed, &reason, now)
	require.NoError(t, err)
	require.NotNil(t, failed.FailureReason)
	assert.Equal(t, reason, *failed.FailureReason)
}

func TestTransactions_Queries(t *testing.T) {
	repos := NewRepositories(testutil.PGTest(t))
	ctx := context.Background()
	now := time.Now().UTC()

	_, _, err := repos.Transactions.Create(ctx, newTx("q1", "u1", "10", now.Add(-48*time.Hour)))
	require.NoError(t, err)
	_, _, err = repos.Transactions.Create(ctx, newTx("q2", "u1", "10", now.Add(-time.Hour)))
	require.NoError(t, err)

	due := now.Add(-time.Minute)
	sched := newTx("q3", "u1", "10", now)
	sched.State = models.StateScheduled
	sched.ScheduledAt = &due
	_, _, err = repos.Transactions.Create(ctx, sched)
	require.NoError(t, err)

	n, err := repos.Transactions.CountSince(ctx, "u1", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := repos.Transactions.ListByUser(ctx, "u1", 2, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	dueList, err := repos.Transactions.ListDueScheduled(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, dueList, 1)
	assert.Equal(t, "q3", dueList[0].IdempotencyKey)
}

func TestBalances_UpdateAmountNeverOverdraws(t *testing.T) {
	repos := NewRepositories(testutil.PGTest(t))
	ctx := context.Background()

	b, err := repos.Balances.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, b.Amount.IsZero())

	b, err = repos.Balances.UpdateAmount(ctx, "u1", decimal.RequireFromString("100.50"))
	require.NoError(t, err)
	assert.True(t, b.Amount.Equal(decimal.RequireFromString("100.50")))

	_, err = repos.Balances.UpdateAmount(ctx, "u1", decimal.RequireFromString("-200"))
	assert.ErrorIs(t, err, repo.ErrInsufficientBalance)

	_, err = repos.Balances.UpdateAmount(ctx, "ghost", decimal.RequireFromString("1"))
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestAuditLogs_RoundTrip(t *testing.T) {
	repos := NewRepositories(testutil.PGTest(t))
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(t, repos.AuditLogs.Create(ctx, models.AuditLog{
		EntityType: "transaction",
		EntityID:   &id,
		Action:     "transaction.created",
		Actor:      "u1",
		Details:    map[string]any{"amount": "10"},
		CreatedAt:  time.Now(),
	}))
	require.NoError(t, repos.AuditLogs.Create(ctx, models.AuditLog{
		EntityType: "transaction",
		EntityID:   &id,
		Action:     "transaction.confirmed",
		Actor:      "u1",
		CreatedAt:  time.Now(),
	}))

	logs, err := repos.AuditLogs.ListByEntity(ctx, id)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "10", logs[0].Details["amount"])
}
