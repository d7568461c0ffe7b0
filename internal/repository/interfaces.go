package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/payments-core/internal/models"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrStateConflict is returned by UpdateState when the row is no longer
	// in the expected state.
	ErrStateConflict = errors.New("state changed concurrently")

	// ErrInsufficientBalance is returned by UpdateAmount when a debit would
	// take the balance below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

type Transactions interface {
	// Create inserts tx unless a row with the same idempotency key exists, in
	// which case that row is returned with created == false.
	Create(ctx context.Context, tx models.Transaction) (stored models.Transaction, created bool, err error)
	GetByID(ctx context.Context, id string) (models.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (models.Transaction, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error)
	// CountSince counts the user's transactions created at or after since.
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]models.Transaction, error)
	// UpdateState moves the row from one state to another only if it is still
	// in from. reason is stored as the failure reason when non-nil.
	UpdateState(ctx context.Context, id string, from, to models.TransactionState, reason *string, at time.Time) (models.Transaction, error)
}

type Balances interface {
	GetOrCreate(ctx context.Context, userID string) (models.Balance, error)
	Get(ctx context.Context, userID string) (models.Balance, error)
	UpdateAmount(ctx context.Context, userID string, delta decimal.Decimal) (models.Balance, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
	ListByEntity(ctx context.Context, entityID string) ([]models.AuditLog, error)
}
