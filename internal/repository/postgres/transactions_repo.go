package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/baharkarakas/payments-core/internal/models"
	repo "github.com/baharkarakas/payments-core/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type transactionsRepo struct{ pool *pgxpool.Pool }

const txColumns = `id, amount, counterparty_key, counterparty_key_type, direction, state, user_id,
  idempotency_key, description, failure_reason, correlation_id, scheduled_at, created_at, updated_at`

func scanTx(row pgx.Row, extra ...any) (models.Transaction, error) {
	var tx models.Transaction
	dest := []any{
		&tx.ID, &tx.Amount, &tx.CounterpartyKey, &tx.CounterpartyKeyType, &tx.Direction, &tx.State, &tx.UserID,
		&tx.IdempotencyKey, &tx.Description, &tx.FailureReason, &tx.CorrelationID, &tx.ScheduledAt,
		&tx.CreatedAt, &tx.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Transaction{}, repo.ErrNotFound
	}
	return tx, err
}

// Create relies on the unique index over idempotency_key. The conflict branch
// is a no-op update so RETURNING yields the existing row; xmax = 0 only for
// freshly inserted tuples.
func (r *transactionsRepo) Create(ctx context.Context, tx models.Transaction) (models.Transaction, bool, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	const q = `
INSERT INTO transactions (
  id, amount, counterparty_key, counterparty_key_type, direction, state, user_id,
  idempotency_key, description, failure_reason, correlation_id, scheduled_at, created_at, updated_at
) VALUES ($1,$2::numeric,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (idempotency_key) DO UPDATE
SET idempotency_key = EXCLUDED.idempotency_key
RETURNING ` + txColumns + `, (xmax = 0) AS inserted;
`
	var inserted bool
	stored, err := scanTx(r.pool.QueryRow(ctx, q,
		tx.ID, tx.Amount.String(), tx.CounterpartyKey, tx.CounterpartyKeyType, tx.Direction, tx.State, tx.UserID,
		tx.IdempotencyKey, tx.Description, tx.FailureReason, tx.CorrelationID, tx.ScheduledAt,
		tx.CreatedAt, tx.UpdatedAt,
	), &inserted)
	if err != nil {
		return models.Transaction{}, false, err
	}
	return stored, inserted, nil
}

func (r *transactionsRepo) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	return scanTx(r.pool.QueryRow(ctx,
		`SELECT `+txColumns+`
		   FROM transactions
		  WHERE id=$1`,
		id,
	))
}

func (r *transactionsRepo) GetByIdempotencyKey(ctx context.Context, key string) (models.Transaction, error) {
	return scanTx(r.pool.QueryRow(ctx,
		`SELECT `+txColumns+`
		   FROM transactions
		  WHERE idempotency_key=$1`,
		key,
	))
}

func (r *transactionsRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error) {
	return r.list(ctx,
		`SELECT `+txColumns+`
		   FROM transactions
		  WHERE user_id=$1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
}

func (r *transactionsRepo) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM transactions WHERE user_id=$1 AND created_at >= $2`,
		userID, since,
	).Scan(&n)
	return n, err
}

func (r *transactionsRepo) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]models.Transaction, error) {
	return r.list(ctx,
		`SELECT `+txColumns+`
		   FROM transactions
		  WHERE state=$1 AND scheduled_at <= $2
		  ORDER BY scheduled_at
		  LIMIT $3`,
		models.StateScheduled, now, limit,
	)
}

func (r *transactionsRepo) UpdateState(ctx context.Context, id string, from, to models.TransactionState, reason *string, at time.Time) (models.Transaction, error) {
	tx, err := scanTx(r.pool.QueryRow(ctx,
		`UPDATE transactions
		    SET state=$3,
		        failure_reason=COALESCE($4, failure_reason),
		        updated_at=$5
		  WHERE id=$1 AND state=$2
		  RETURNING `+txColumns,
		id, from, to, reason, at,
	))
	if errors.Is(err, repo.ErrNotFound) {
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return models.Transaction{}, gerr
		}
		return models.Transaction{}, repo.ErrStateConflict
	}
	return tx, err
}

func (r *transactionsRepo) list(ctx context.Context, q string, args ...any) ([]models.Transaction, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		tx, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}
