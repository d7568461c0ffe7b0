package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/baharkarakas/payments-core/internal/idempotency"
	"github.com/baharkarakas/payments-core/internal/lifecycle"
	"github.com/baharkarakas/payments-core/internal/logger"
	"github.com/baharkarakas/payments-core/internal/metrics"
	"github.com/baharkarakas/payments-core/internal/models"
	repo "github.com/baharkarakas/payments-core/internal/repository"
	"github.com/baharkarakas/payments-core/internal/risk"
	"github.com/baharkarakas/payments-core/internal/traces"
)

// Ledger is the balance collaborator. repository.Balances satisfies it.
type Ledger interface {
	GetOrCreate(ctx context.Context, userID string) (models.Balance, error)
	UpdateAmount(ctx context.Context, userID string, delta decimal.Decimal) (models.Balance, error)
}

// AuditSink receives fire-and-forget audit records. Implementations must not
// block and never report failure to the caller.
type AuditSink interface {
	Record(ctx context.Context, action, actor, resource string, details map[string]any)
}

// Audit actions.
const (
	ActionCreated   = "transaction.created"
	ActionScheduled = "transaction.scheduled"
	ActionConfirmed = "transaction.confirmed"
	ActionFailed    = "transaction.failed"
	ActionCanceled  = "transaction.canceled"
	ActionPromoted  = "transaction.promoted"
	ActionRejected  = "transaction.rejected"
)

const attemptsWindow = 24 * time.Hour

type CreateInput struct {
	UserID              string
	Amount              decimal.Decimal
	CounterpartyKey     string
	CounterpartyKeyType models.KeyType
	Direction           models.Direction
	Description         *string
	IdempotencyKey      string
	CorrelationID       string
	ScheduledAt         *time.Time
	Origin              *string
}

type CreateResult struct {
	Transaction models.Transaction `json:"transaction"`
	// Replayed is true when the idempotency key already had a record.
	Replayed bool          `json:"replayed"`
	Verdict  *risk.Verdict `json:"verdict,omitempty"`
}

type Option func(*TransactionService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TransactionService) { s.now = now }
}

// WithLocation sets the zone in which the night-hours rule reads the clock.
func WithLocation(loc *time.Location) Option {
	return func(s *TransactionService) { s.loc = loc }
}

type TransactionService struct {
	trx    repo.Transactions
	ledger Ledger
	audit  AuditSink
	engine *risk.Engine
	gate   *idempotency.Gate
	now    func() time.Time
	loc    *time.Location
}

func NewTransactionService(t repo.Transactions, l Ledger, a AuditSink, e *risk.Engine, opts ...Option) *TransactionService {
	s := &TransactionService{
		trx:    t,
		ledger: l,
		audit:  a,
		engine: e,
		gate:   idempotency.NewGate(t),
		now:    time.Now,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ----------------- Create -----------------

// Create runs the decision protocol for one request: idempotency gate, funds
// check, risk evaluation, then creation and execution. A replayed key returns
// the stored record untouched. InsufficientFunds writes nothing; a risk
// rejection persists a FAILED record and returns it with a
// *RiskRejectedError.
func (s *TransactionService) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	if in.IdempotencyKey == "" {
		in.IdempotencyKey = idempotency.NewKey()
	}
	if in.CorrelationID == "" {
		in.CorrelationID = uuid.NewString()
	}
	if in.Direction == "" {
		in.Direction = models.DirectionOutbound
	}
	ctx = logger.WithCorrelationID(ctx, in.CorrelationID)
	ctx, span := traces.StartSpan(ctx, "transactions.create",
		traces.CorrelationID(in.CorrelationID), traces.Amount(in.Amount.String()))
	defer span.End()

	adm, err := s.gate.Admit(ctx, in.IdempotencyKey)
	if err != nil {
		return CreateResult{}, spanErr(span, err)
	}
	if !adm.Admitted() {
		res, err := s.replay(ctx, *adm.Existing, in.UserID)
		return res, spanErr(span, err)
	}

	now := s.now()
	tx := models.Transaction{
		ID:                  uuid.NewString(),
		Amount:              in.Amount,
		CounterpartyKey:     in.CounterpartyKey,
		CounterpartyKeyType: in.CounterpartyKeyType,
		Direction:           in.Direction,
		UserID:              in.UserID,
		IdempotencyKey:      in.IdempotencyKey,
		Description:         in.Description,
		CorrelationID:       in.CorrelationID,
		ScheduledAt:         in.ScheduledAt,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if in.ScheduledAt != nil && in.ScheduledAt.After(now) {
		tx.State = models.StateScheduled
		stored, created, err := s.gate.Reserve(ctx, tx)
		if err != nil {
			return CreateResult{}, spanErr(span, err)
		}
		if !created {
			res, err := s.replay(ctx, stored, in.UserID)
			return res, spanErr(span, err)
		}
		s.record(ctx, ActionScheduled, stored, map[string]any{"scheduled_at": stored.ScheduledAt})
		metrics.TransactionsTotal.WithLabelValues(string(stored.State)).Inc()
		span.SetAttributes(traces.TransactionID(stored.ID), traces.State(string(stored.State)))
		return CreateResult{Transaction: stored}, nil
	}

	if err := s.checkFunds(ctx, tx); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			metrics.TransactionsFailed.WithLabelValues(ReasonInsufficientFunds).Inc()
		}
		return CreateResult{}, spanErr(span, err)
	}

	verdict, err := s.assess(ctx, tx, in.Origin, now)
	if err != nil {
		return CreateResult{}, spanErr(span, err)
	}

	if !verdict.Approved {
		reason := verdict.Reason
		tx.State = models.StateFailed
		tx.FailureReason = &reason
		stored, created, err := s.gate.Reserve(ctx, tx)
		if err != nil {
			return CreateResult{}, spanErr(span, err)
		}
		if !created {
			res, err := s.replay(ctx, stored, in.UserID)
			return res, spanErr(span, err)
		}
		metrics.TransactionsTotal.WithLabelValues(string(stored.State)).Inc()
		metrics.TransactionsFailed.WithLabelValues(ReasonRiskRejected).Inc()
		s.record(ctx, ActionRejected, stored, map[string]any{
			"score":           verdict.Score,
			"level":           verdict.Level,
			"activated_rules": verdict.ActivatedRules,
		})
		span.SetAttributes(traces.TransactionID(stored.ID), traces.State(string(stored.State)))
		return CreateResult{Transaction: stored, Verdict: &verdict},
			spanErr(span, &RiskRejectedError{Verdict: verdict})
	}

	tx.State = models.StateCreated
	stored, created, err := s.gate.Reserve(ctx, tx)
	if err != nil {
		return CreateResult{}, spanErr(span, err)
	}
	if !created {
		res, err := s.replay(ctx, stored, in.UserID)
		return res, spanErr(span, err)
	}
	metrics.TransactionsTotal.WithLabelValues(string(stored.State)).Inc()
	s.record(ctx, ActionCreated, stored, nil)
	span.SetAttributes(traces.TransactionID(stored.ID))

	final, err := s.execute(ctx, stored)
	span.SetAttributes(traces.State(string(final.State)))
	return CreateResult{Transaction: final, Verdict: &verdict}, spanErr(span, err)
}

// replay returns the record already stored under the key. A key held by
// another user is refused without revealing its record.
func (s *TransactionService) replay(ctx context.Context, tx models.Transaction, userID string) (CreateResult, error) {
	if tx.UserID != userID {
		logger.L(ctx).Warn("idempotency key held by another user", "user_id", userID)
		return CreateResult{}, ErrKeyInUse
	}
	metrics.IdempotentReplays.Inc()
	logger.L(ctx).Info("idempotent replay", "tx_id", tx.ID, "state", tx.State)
	return CreateResult{Transaction: tx, Replayed: true}, nil
}

// checkFunds reads the ledger for outbound transfers.
func (s *TransactionService) checkFunds(ctx context.Context, tx models.Transaction) error {
	bal, err := s.ledger.GetOrCreate(ctx, tx.UserID)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if tx.Direction == models.DirectionOutbound && !bal.Covers(tx.Amount) {
		logger.L(ctx).Info("insufficient funds", "user_id", tx.UserID, "amount", tx.Amount.String(), "balance", bal.Amount.String())
		return ErrInsufficientFunds
	}
	return nil
}

// assess builds the risk request for tx at now and evaluates it. Attempts is
// the number of transactions the user created in the trailing 24 hours.
func (s *TransactionService) assess(ctx context.Context, tx models.Transaction, origin *string, now time.Time) (risk.Verdict, error) {
	attempts, err := s.trx.CountSince(ctx, tx.UserID, now.Add(-attemptsWindow))
	if err != nil {
		return risk.Verdict{}, fmt.Errorf("count attempts: %w", err)
	}
	if attempts > risk.MaxAttempts {
		attempts = risk.MaxAttempts
	}
	local := now.In(s.loc)
	v := s.EvaluateRisk(risk.Request{
		Amount:   tx.Amount,
		Hour:     local.Hour(),
		Minute:   local.Minute(),
		Attempts: attempts,
		Channel:  risk.DefaultChannel,
		Origin:   origin,
	})
	logger.L(ctx).Info("risk evaluated",
		"user_id", tx.UserID, "score", v.Score, "level", v.Level, "rules", v.ActivatedRules)
	return v, nil
}

// EvaluateRisk scores req without touching any store.
func (s *TransactionService) EvaluateRisk(req risk.Request) risk.Verdict {
	v := s.engine.Evaluate(req)
	metrics.RiskEvaluations.WithLabelValues(string(v.Level)).Inc()
	return v
}

// ----------------- Execution -----------------

// execute drives a CREATED record through PROCESSING to CONFIRMED, moving the
// amount on the ledger in between. Any failure lands the record in FAILED. If
// another writer finished the record first, settle decides whether the
// movement stands.
func (s *TransactionService) execute(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	processing, err := s.transition(ctx, tx, lifecycle.EventBegin, nil)
	if err != nil {
		if errors.Is(err, repo.ErrStateConflict) {
			return s.current(ctx, tx)
		}
		return s.fail(ctx, tx, ReasonExecution, "", err)
	}

	delta := tx.Amount
	if tx.Direction == models.DirectionOutbound {
		delta = delta.Neg()
	}
	if _, err := s.ledger.UpdateAmount(ctx, tx.UserID, delta); err != nil {
		if errors.Is(err, repo.ErrInsufficientBalance) {
			return s.fail(ctx, processing, ReasonInsufficientFunds, "", ErrInsufficientFunds)
		}
		return s.fail(ctx, processing, ReasonExecution, "", fmt.Errorf("ledger movement: %w", err))
	}

	confirmed, err := s.transition(ctx, processing, lifecycle.EventComplete, nil)
	if errors.Is(err, repo.ErrStateConflict) {
		return s.settle(ctx, tx, delta)
	}
	if err != nil {
		s.reverse(ctx, tx, delta)
		return s.fail(ctx, processing, ReasonExecution, "", err)
	}
	s.record(ctx, ActionConfirmed, confirmed, nil)
	return confirmed, nil
}

// settle resolves a lost completion write. A concurrent Confirm already
// finished the record and the movement stands; any other final state (a
// cancel) has the movement reversed.
func (s *TransactionService) settle(ctx context.Context, tx models.Transaction, delta decimal.Decimal) (models.Transaction, error) {
	cur, err := s.trx.GetByID(context.WithoutCancel(ctx), tx.ID)
	if err != nil {
		logger.L(ctx).Error("completion lost, record unreadable", "tx_id", tx.ID, "err", err)
		return tx, fmt.Errorf("read after completion conflict: %w", err)
	}
	if cur.State != models.StateConfirmed {
		s.reverse(ctx, tx, delta)
	}
	logger.L(ctx).Info("completion lost to concurrent writer", "tx_id", tx.ID, "state", cur.State)
	return cur, nil
}

func (s *TransactionService) reverse(ctx context.Context, tx models.Transaction, delta decimal.Decimal) {
	if _, err := s.ledger.UpdateAmount(context.WithoutCancel(ctx), tx.UserID, delta.Neg()); err != nil {
		logger.L(ctx).Error("ledger reversal failed", "tx_id", tx.ID, "err", err)
	}
}

// fail moves tx to FAILED, passing through PROCESSING when it is still
// CREATED. kind labels the failure; the stored failure reason is detail, or
// kind when detail is empty. cause is returned to the caller with the record
// as stored. The write ignores request cancellation so a record is never
// left behind in PROCESSING.
func (s *TransactionService) fail(ctx context.Context, tx models.Transaction, kind, detail string, cause error) (models.Transaction, error) {
	wctx := context.WithoutCancel(ctx)
	metrics.TransactionsFailed.WithLabelValues(kind).Inc()
	reason := detail
	if reason == "" {
		reason = kind
	}

	if tx.State == models.StateCreated {
		next, err := s.transition(wctx, tx, lifecycle.EventBegin, nil)
		if err != nil {
			logger.L(ctx).Error("fail: begin", "tx_id", tx.ID, "err", err)
			return tx, cause
		}
		tx = next
	}
	failed, err := s.transition(wctx, tx, lifecycle.EventFail, &reason)
	if err != nil {
		logger.L(ctx).Error("fail: mark failed", "tx_id", tx.ID, "err", err)
		return tx, cause
	}
	s.record(ctx, ActionFailed, failed, map[string]any{"error": cause.Error()})
	return failed, cause
}

// transition applies event to tx and persists it with a guarded update.
func (s *TransactionService) transition(ctx context.Context, tx models.Transaction, event lifecycle.Event, reason *string) (models.Transaction, error) {
	next, err := lifecycle.Apply(tx.State, event)
	if err != nil {
		return tx, err
	}
	updated, err := s.trx.UpdateState(ctx, tx.ID, tx.State, next, reason, s.now())
	if err != nil {
		return tx, err
	}
	metrics.TransactionsTotal.WithLabelValues(string(next)).Inc()
	logger.L(ctx).Info("state change", "tx_id", tx.ID, "from", tx.State, "to", next)
	return updated, nil
}

func (s *TransactionService) current(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	cur, err := s.trx.GetByID(ctx, tx.ID)
	if err != nil {
		return tx, err
	}
	return cur, nil
}

// ----------------- Confirm / Cancel / Promote -----------------

// Confirm advances a CREATED or PROCESSING record to CONFIRMED. A CREATED
// record is executed on the way; a PROCESSING record only has its state
// completed. Unknown ids return found == false and no error.
func (s *TransactionService) Confirm(ctx context.Context, id string) (models.Transaction, bool, error) {
	ctx, span := traces.StartSpan(ctx, "transactions.confirm", traces.TransactionID(id))
	defer span.End()

	tx, found, err := s.lookup(ctx, id)
	if !found || err != nil {
		return tx, found, spanErr(span, err)
	}
	ctx = logger.WithCorrelationID(ctx, tx.CorrelationID)

	switch tx.State {
	case models.StateCreated:
		out, err := s.execute(ctx, tx)
		return out, true, spanErr(span, err)
	case models.StateProcessing:
		out, err := s.transition(ctx, tx, lifecycle.EventComplete, nil)
		if err != nil {
			return tx, true, spanErr(span, s.conflict(err, tx.State, models.StateConfirmed))
		}
		s.record(ctx, ActionConfirmed, out, nil)
		return out, true, nil
	default:
		return tx, true, spanErr(span, lifecycle.Check(tx.State, models.StateConfirmed))
	}
}

// Cancel moves a CREATED or PROCESSING record to CANCELED.
func (s *TransactionService) Cancel(ctx context.Context, id string) (models.Transaction, bool, error) {
	ctx, span := traces.StartSpan(ctx, "transactions.cancel", traces.TransactionID(id))
	defer span.End()

	tx, found, err := s.lookup(ctx, id)
	if !found || err != nil {
		return tx, found, spanErr(span, err)
	}
	ctx = logger.WithCorrelationID(ctx, tx.CorrelationID)

	out, err := s.transition(ctx, tx, lifecycle.EventCancel, nil)
	if err != nil {
		return tx, true, spanErr(span, s.conflict(err, tx.State, models.StateCanceled))
	}
	s.record(ctx, ActionCanceled, out, nil)
	return out, true, nil
}

// Promote is the scheduler entry point. A due SCHEDULED record becomes
// CREATED and then runs the same funds, risk and execution steps as an
// immediate create, failing into FAILED where a fresh create would refuse.
func (s *TransactionService) Promote(ctx context.Context, id string) (models.Transaction, bool, error) {
	ctx, span := traces.StartSpan(ctx, "transactions.promote", traces.TransactionID(id))
	defer span.End()

	tx, found, err := s.lookup(ctx, id)
	if !found || err != nil {
		return tx, found, spanErr(span, err)
	}
	ctx = logger.WithCorrelationID(ctx, tx.CorrelationID)

	created, err := s.transition(ctx, tx, lifecycle.EventPromote, nil)
	if err != nil {
		return tx, true, spanErr(span, s.conflict(err, tx.State, models.StateCreated))
	}
	s.record(ctx, ActionPromoted, created, nil)

	if err := s.checkFunds(ctx, created); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			out, err := s.fail(ctx, created, ReasonInsufficientFunds, "", err)
			return out, true, spanErr(span, err)
		}
		out, _ := s.fail(ctx, created, ReasonExecution, "", err)
		return out, true, spanErr(span, err)
	}

	verdict, err := s.assess(ctx, created, nil, s.now())
	if err != nil {
		out, _ := s.fail(ctx, created, ReasonExecution, "", err)
		return out, true, spanErr(span, err)
	}
	if !verdict.Approved {
		out, err := s.fail(ctx, created, ReasonRiskRejected, verdict.Reason, &RiskRejectedError{Verdict: verdict})
		return out, true, spanErr(span, err)
	}

	out, err := s.execute(ctx, created)
	return out, true, spanErr(span, err)
}

func (s *TransactionService) lookup(ctx context.Context, id string) (models.Transaction, bool, error) {
	tx, err := s.trx.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Transaction{}, false, nil
	}
	if err != nil {
		return models.Transaction{}, false, err
	}
	return tx, true, nil
}

// conflict reports a lost guarded update as an illegal move from the state
// the record was read in.
func (s *TransactionService) conflict(err error, from, to models.TransactionState) error {
	if errors.Is(err, repo.ErrStateConflict) {
		return &lifecycle.IllegalTransitionError{From: from, Target: to}
	}
	return err
}

// ----------------- Queries -----------------

func (s *TransactionService) GetByID(ctx context.Context, id string) (models.Transaction, bool, error) {
	return s.lookup(ctx, id)
}

func (s *TransactionService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error) {
	return s.trx.ListByUser(ctx, userID, limit, offset)
}

func (s *TransactionService) ListDueScheduled(ctx context.Context, limit int) ([]models.Transaction, error) {
	return s.trx.ListDueScheduled(ctx, s.now(), limit)
}

func (s *TransactionService) Balance(ctx context.Context, userID string) (models.Balance, error) {
	return s.ledger.GetOrCreate(ctx, userID)
}

// ----------------- Helpers -----------------

func (s *TransactionService) record(ctx context.Context, action string, tx models.Transaction, extra map[string]any) {
	details := map[string]any{
		"correlation_id": tx.CorrelationID,
		"amount":         tx.Amount.String(),
		"state":          string(tx.State),
	}
	if tx.FailureReason != nil {
		details["failure_reason"] = *tx.FailureReason
	}
	for k, v := range extra {
		details[k] = v
	}
	s.audit.Record(ctx, action, tx.UserID, tx.ID, details)
}

func spanErr(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
