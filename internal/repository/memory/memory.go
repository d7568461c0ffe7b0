// Package memory implements the repository interfaces in process memory.
// It backs unit tests and the database-less dev mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/payments-core/internal/models"
	repo "github.com/baharkarakas/payments-core/internal/repository"
)

type Transactions struct {
	mu    sync.RWMutex
	byID  map[string]models.Transaction
	byKey map[string]string // idempotency key -> id
}

func NewTransactions() *Transactions {
	return &Transactions{
		byID:  make(map[string]models.Transaction),
		byKey: make(map[string]string),
	}
}

func (s *Transactions) Create(_ context.Context, tx models.Transaction) (models.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[tx.IdempotencyKey]; ok {
		return s.byID[id], false, nil
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	s.byID[tx.ID] = tx
	s.byKey[tx.IdempotencyKey] = tx.ID
	return tx, true, nil
}

func (s *Transactions) GetByID(_ context.Context, id string) (models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.byID[id]
	if !ok {
		return models.Transaction{}, repo.ErrNotFound
	}
	return tx, nil
}

func (s *Transactions) GetByIdempotencyKey(_ context.Context, key string) (models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[key]
	if !ok {
		return models.Transaction{}, repo.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *Transactions) ListByUser(_ context.Context, userID string, limit, offset int) ([]models.Transaction, error) {
	out := s.filter(func(tx models.Transaction) bool { return tx.UserID == userID })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (s *Transactions) CountSince(_ context.Context, userID string, since time.Time) (int, error) {
	return len(s.filter(func(tx models.Transaction) bool {
		return tx.UserID == userID && !tx.CreatedAt.Before(since)
	})), nil
}

func (s *Transactions) ListDueScheduled(_ context.Context, now time.Time, limit int) ([]models.Transaction, error) {
	out := s.filter(func(tx models.Transaction) bool {
		return tx.State == models.StateScheduled && tx.ScheduledAt != nil && !tx.ScheduledAt.After(now)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(*out[j].ScheduledAt) })
	return page(out, limit, 0), nil
}

func (s *Transactions) UpdateState(_ context.Context, id string, from, to models.TransactionState, reason *string, at time.Time) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.byID[id]
	if !ok {
		return models.Transaction{}, repo.ErrNotFound
	}
	if tx.State != from {
		return models.Transaction{}, repo.ErrStateConflict
	}
	tx.State = to
	if reason != nil {
		r := *reason
		tx.FailureReason = &r
	}
	tx.UpdatedAt = at
	s.byID[id] = tx
	return tx, nil
}

// Len returns the number of stored transactions.
func (s *Transactions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *Transactions) filter(keep func(models.Transaction) bool) []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Transaction
	for _, tx := range s.byID {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	return out
}

func page(txs []models.Transaction, limit, offset int) []models.Transaction {
	if offset >= len(txs) {
		return nil
	}
	txs = txs[offset:]
	if limit > 0 && limit < len(txs) {
		txs = txs[:limit]
	}
	return txs
}

type Balances struct {
	mu       sync.Mutex
	balances map[string]models.Balance
}

func NewBalances() *Balances {
	return &Balances{balances: make(map[string]models.Balance)}
}

// Set overwrites a user's balance.
func (s *Balances) Set(userID string, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] = models.Balance{UserID: userID, Amount: amount, LastUpdatedAt: time.Now()}
}

func (s *Balances) GetOrCreate(_ context.Context, userID string) (models.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[userID]
	if !ok {
		b = models.Balance{UserID: userID, Amount: decimal.Zero, LastUpdatedAt: time.Now()}
		s.balances[userID] = b
	}
	return b, nil
}

func (s *Balances) Get(_ context.Context, userID string) (models.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[userID]
	if !ok {
		return models.Balance{}, repo.ErrNotFound
	}
	return b, nil
}

func (s *Balances) UpdateAmount(_ context.Context, userID string, delta decimal.Decimal) (models.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[userID]
	if !ok {
		return models.Balance{}, repo.ErrNotFound
	}
	next := b.Amount.Add(delta)
	if next.IsNegative() {
		return models.Balance{}, repo.ErrInsufficientBalance
	}
	b.Amount = next
	b.LastUpdatedAt = time.Now()
	s.balances[userID] = b
	return b, nil
}

type AuditLogs struct {
	mu   sync.RWMutex
	logs []models.AuditLog
}

func NewAuditLogs() *AuditLogs { return &AuditLogs{} }

func (s *AuditLogs) Create(_ context.Context, l models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	s.logs = append(s.logs, l)
	return nil
}

func (s *AuditLogs) ListByEntity(_ context.Context, entityID string) ([]models.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.AuditLog
	for _, l := range s.logs {
		if l.EntityID != nil && *l.EntityID == entityID {
			out = append(out, l)
		}
	}
	return out, nil
}

// All returns every stored audit record in insertion order.
func (s *AuditLogs) All() []models.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AuditLog, len(s.logs))
	copy(out, s.logs)
	return out
}

// Repositories bundles fresh in-memory stores.
type Repositories struct {
	Transactions *Transactions
	Balances     *Balances
	AuditLogs    *AuditLogs
}

func NewRepositories() Repositories {
	return Repositories{
		Transactions: NewTransactions(),
		Balances:     NewBalances(),
		AuditLogs:    NewAuditLogs(),
	}
}
