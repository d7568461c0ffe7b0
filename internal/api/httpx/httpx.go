package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/baharkarakas/payments-core/internal/api/validate"
	"github.com/baharkarakas/payments-core/internal/idempotency"
	"github.com/baharkarakas/payments-core/internal/lifecycle"
	"github.com/baharkarakas/payments-core/internal/logger"
	repo "github.com/baharkarakas/payments-core/internal/repository"
	"github.com/baharkarakas/payments-core/internal/services"
)

const maxBodyBytes = 1 << 20

type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details any) {
	WriteJSON(w, status, APIError{
		Error:   msg,
		Code:    code,
		Details: details,
	})
}

// DecodeJSON reads a single JSON object into dst, rejecting unknown fields.
// Decoding problems come back as validate.Errs.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return validate.Errs{{Field: "body", Msg: "malformed JSON: " + err.Error()}}
	}
	return nil
}

// WriteServiceError maps the error taxonomy onto HTTP statuses. body, when
// non-nil, is returned as details alongside the error (the FAILED record of
// a risk rejection).
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error, body any) {
	var (
		verrs validate.Errs
		rr    *services.RiskRejectedError
		it    *lifecycle.IllegalTransitionError
	)
	switch {
	case errors.As(err, &verrs):
		WriteError(w, http.StatusBadRequest, "validation_error", "validation failed", verrs)
	case errors.Is(err, idempotency.ErrInvalidKey):
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, services.ErrKeyInUse):
		WriteError(w, http.StatusConflict, "idempotency_conflict", err.Error(), nil)
	case errors.As(err, &it):
		WriteError(w, http.StatusConflict, "illegal_transition", it.Error(), nil)
	case errors.Is(err, services.ErrInsufficientFunds):
		WriteError(w, http.StatusUnprocessableEntity, "insufficient_funds", err.Error(), body)
	case errors.As(err, &rr):
		WriteError(w, http.StatusUnprocessableEntity, "risk_rejected", rr.Verdict.Reason, body)
	case errors.Is(err, repo.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "not found", nil)
	default:
		logger.L(r.Context()).Error("request failed", slog.String("path", r.URL.Path), slog.Any("err", err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
