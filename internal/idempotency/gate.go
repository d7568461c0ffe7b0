// Package idempotency guarantees at most one transaction per idempotency key.
//
// The store's uniqueness constraint on the key is the single source of truth:
// Admit is a read, Reserve is a compare-and-insert. Two callers racing on the
// same key both pass Admit, but only one Reserve creates a row; the other
// receives the winner's row.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/baharkarakas/payments-core/internal/models"
	repo "github.com/baharkarakas/payments-core/internal/repository"
)

const MaxKeyLength = 100

var ErrInvalidKey = errors.New("invalid idempotency key")

// Store is the subset of repository.Transactions the gate needs.
type Store interface {
	GetByIdempotencyKey(ctx context.Context, key string) (models.Transaction, error)
	Create(ctx context.Context, tx models.Transaction) (models.Transaction, bool, error)
}

// Admission is the outcome of Admit. Existing is set when the key already
// has a record; the caller must return it unchanged.
type Admission struct {
	Existing *models.Transaction
}

func (a Admission) Admitted() bool { return a.Existing == nil }

type Gate struct {
	store Store
}

func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

func (g *Gate) Admit(ctx context.Context, key string) (Admission, error) {
	if err := CheckKey(key); err != nil {
		return Admission{}, err
	}
	tx, err := g.store.GetByIdempotencyKey(ctx, key)
	switch {
	case err == nil:
		return Admission{Existing: &tx}, nil
	case errors.Is(err, repo.ErrNotFound):
		return Admission{}, nil
	default:
		return Admission{}, fmt.Errorf("idempotency lookup: %w", err)
	}
}

// Reserve inserts tx under its key. created is false when another caller
// already owns the key; stored is then that caller's record.
func (g *Gate) Reserve(ctx context.Context, tx models.Transaction) (stored models.Transaction, created bool, err error) {
	if err := CheckKey(tx.IdempotencyKey); err != nil {
		return models.Transaction{}, false, err
	}
	stored, created, err = g.store.Create(ctx, tx)
	if err != nil {
		return models.Transaction{}, false, fmt.Errorf("idempotency reserve: %w", err)
	}
	return stored, created, nil
}

// NewKey mints a server-side key for callers that did not send one.
func NewKey() string { return uuid.NewString() }

func CheckKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidKey, MaxKeyLength)
	}
	return nil
}
