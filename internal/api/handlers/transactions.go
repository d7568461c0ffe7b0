package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/payments-core/internal/api/httpx"
	"github.com/baharkarakas/payments-core/internal/api/validate"
	"github.com/baharkarakas/payments-core/internal/auth"
	"github.com/baharkarakas/payments-core/internal/logger"
	"github.com/baharkarakas/payments-core/internal/middleware"
	"github.com/baharkarakas/payments-core/internal/models"
	"github.com/baharkarakas/payments-core/internal/services"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"

	defaultPageSize = 50
	maxPageSize     = 200
)

type TransactionHandler struct {
	Svc *services.TransactionService
	Now func() time.Time
}

func NewTransactionHandler(svc *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{Svc: svc, Now: time.Now}
}

// Create handles POST /transactions. 201 for a new record, 200 for a replay.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	var p validate.TransactionPayload
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.WriteServiceError(w, r, err, nil)
		return
	}
	key := r.Header.Get(HeaderIdempotencyKey)
	if key == "" {
		key = p.IdempotencyKey
	}
	if err := validate.Merge(validate.Transaction(p, h.Now()), validate.IdempotencyKey(HeaderIdempotencyKey, key)); err != nil {
		httpx.WriteServiceError(w, r, err, nil)
		return
	}

	res, err := h.Svc.Create(r.Context(), services.CreateInput{
		UserID:              uid,
		Amount:              p.Amount,
		CounterpartyKey:     validate.NormalizeKey(p.CounterpartyKeyType, p.CounterpartyKey),
		CounterpartyKeyType: p.CounterpartyKeyType,
		Direction:           p.Direction,
		Description:         p.Description,
		IdempotencyKey:      key,
		CorrelationID:       logger.CorrelationID(r.Context()),
		ScheduledAt:         p.ScheduledAt,
		Origin:              p.Origin,
	})
	if err != nil {
		var body any
		if res.Transaction.ID != "" {
			body = res
		}
		httpx.WriteServiceError(w, r, err, body)
		return
	}

	w.Header().Set(HeaderIdempotencyKey, res.Transaction.IdempotencyKey)
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	httpx.WriteJSON(w, status, res)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.owned(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tx)
}

func (h *TransactionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.Svc.Confirm)
}

func (h *TransactionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.Svc.Cancel)
}

// Promote is the operator hook for the scheduler contract; no ownership
// check applies.
func (h *TransactionHandler) Promote(w http.ResponseWriter, r *http.Request) {
	tx, found, err := h.Svc.Promote(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, tx, found, err)
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}
	limit, offset, err := page(r)
	if err != nil {
		httpx.WriteServiceError(w, r, err, nil)
		return
	}
	txs, err := h.Svc.ListByUser(r.Context(), uid, limit, offset)
	if err != nil {
		httpx.WriteServiceError(w, r, err, nil)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	httpx.WriteJSON(w, http.StatusOK, txs)
}

type action func(ctx context.Context, id string) (models.Transaction, bool, error)

func (h *TransactionHandler) act(w http.ResponseWriter, r *http.Request, do action) {
	tx, ok := h.owned(w, r)
	if !ok {
		return
	}
	out, found, err := do(r.Context(), tx.ID)
	h.respond(w, r, out, found, err)
}

func (h *TransactionHandler) respond(w http.ResponseWriter, r *http.Request, tx models.Transaction, found bool, err error) {
	switch {
	case err != nil:
		var body any
		if found {
			body = tx
		}
		httpx.WriteServiceError(w, r, err, body)
	case !found:
		httpx.WriteError(w, http.StatusNotFound, "not_found", "transaction not found", nil)
	default:
		httpx.WriteJSON(w, http.StatusOK, tx)
	}
}

// owned loads the {id} transaction and hides it from anyone but its owner or
// an operator.
func (h *TransactionHandler) owned(w http.ResponseWriter, r *http.Request) (models.Transaction, bool) {
	uid, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return models.Transaction{}, false
	}
	tx, found, err := h.Svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteServiceError(w, r, err, nil)
		return models.Transaction{}, false
	}
	role, _ := middleware.Role(r.Context())
	if !found || (tx.UserID != uid && role != auth.RoleOperator) {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "transaction not found", nil)
		return models.Transaction{}, false
	}
	return tx, true
}

func page(r *http.Request) (limit, offset int, err error) {
	limit, offset = defaultPageSize, 0
	q := r.URL.Query()
	var errs []*validate.ErrField
	if v := q.Get("limit"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n <= 0 || n > maxPageSize {
			errs = append(errs, &validate.ErrField{Field: "limit", Msg: "must be between 1 and " + strconv.Itoa(maxPageSize)})
		} else {
			limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 0 {
			errs = append(errs, &validate.ErrField{Field: "offset", Msg: "must be >= 0"})
		} else {
			offset = n
		}
	}
	return limit, offset, validate.Collect(errs...)
}
