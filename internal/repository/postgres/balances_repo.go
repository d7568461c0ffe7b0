package postgres

import (
	"context"
	"errors"

	"github.com/baharkarakas/payments-core/internal/models"
	repo "github.com/baharkarakas/payments-core/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type balancesRepo struct{ pool *pgxpool.Pool }

func (r *balancesRepo) GetOrCreate(ctx context.Context, userID string) (models.Balance, error) {
	if b, err := r.Get(ctx, userID); err == nil {
		return b, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return models.Balance{}, err
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO balances(user_id, amount, last_updated_at)
		 VALUES($1, 0, now())
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return models.Balance{}, err
	}
	return r.Get(ctx, userID)
}

// UpdateAmount applies delta in a single statement; a debit that would
// overdraw matches no row.
func (r *balancesRepo) UpdateAmount(ctx context.Context, userID string, delta decimal.Decimal) (models.Balance, error) {
	var b models.Balance
	err := r.pool.QueryRow(ctx,
		`UPDATE balances
		    SET amount = amount + $2::numeric,
		        last_updated_at = now()
		  WHERE user_id = $1
		    AND amount + $2::numeric >= 0
		  RETURNING user_id, amount, last_updated_at`,
		userID, delta.String(),
	).Scan(&b.UserID, &b.Amount, &b.LastUpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, gerr := r.Get(ctx, userID); gerr != nil {
			return models.Balance{}, gerr
		}
		return models.Balance{}, repo.ErrInsufficientBalance
	}
	return b, err
}

func (r *balancesRepo) Get(ctx context.Context, userID string) (models.Balance, error) {
	var b models.Balance
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, amount, last_updated_at
		   FROM balances
		  WHERE user_id=$1`,
		userID,
	).Scan(&b.UserID, &b.Amount, &b.LastUpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Balance{}, repo.ErrNotFound
	}
	return b, err
}
