package handlers

import (
	"net/http"

	"github.com/baharkarakas/payments-core/internal/api/httpx"
	"github.com/baharkarakas/payments-core/internal/middleware"
	"github.com/baharkarakas/payments-core/internal/services"
)

type BalanceHandler struct {
	Svc *services.TransactionService
}

func NewBalanceHandler(svc *services.TransactionService) *BalanceHandler {
	return &BalanceHandler{Svc: svc}
}

func (h *BalanceHandler) Current(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}
	b, err := h.Svc.Balance(r.Context(), uid)
	if err != nil {
		httpx.WriteServiceError(w, r, err, nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}
