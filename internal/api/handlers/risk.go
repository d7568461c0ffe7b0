package handlers

import (
	"net/http"

	"github.com/baharkarakas/payments-core/internal/api/httpx"
	"github.com/baharkarakas/payments-core/internal/api/validate"
	"github.com/baharkarakas/payments-core/internal/services"
)

type RiskHandler struct {
	Svc *services.TransactionService
}

func NewRiskHandler(svc *services.TransactionService) *RiskHandler {
	return &RiskHandler{Svc: svc}
}

// Evaluate scores a risk payload without persisting anything.
func (h *RiskHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var p validate.RiskPayload
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.WriteServiceError(w, r, err, nil)
		return
	}
	req, err := validate.RiskInput(p)
	if err != nil {
		httpx.WriteServiceError(w, r, err, nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.Svc.EvaluateRisk(req))
}
