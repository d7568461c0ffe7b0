package handlers

import (
	"net/http"
	"time"

	"github.com/baharkarakas/payments-core/internal/api/httpx"
	"github.com/baharkarakas/payments-core/internal/api/validate"
	"github.com/baharkarakas/payments-core/internal/auth"
)

type AuthHandler struct {
	TM     *auth.TokenManager
	AppEnv string
}

func NewAuthHandler(tm *auth.TokenManager, appEnv string) *AuthHandler {
	return &AuthHandler{TM: tm, AppEnv: appEnv}
}

type tokenReq struct {
	UserID string `json:"user_id" validate:"required,max=100"`
	Role   string `json:"role,omitempty" validate:"omitempty,oneof=user operator"`
}

type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}

// Token issues a pair for any user id. Credentials are checked upstream of
// this service, so the endpoint only exists in dev.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if h.AppEnv != "dev" {
		httpx.WriteError(w, http.StatusNotImplemented, "not_implemented", "token issuance is only available in dev", nil)
		return
	}
	var req tokenReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteServiceError(w, r, err, nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.WriteServiceError(w, r, err, nil)
		return
	}
	if req.Role == "" {
		req.Role = auth.RoleUser
	}
	h.issue(w, r, req.UserID, req.Role)
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteServiceError(w, r, err, nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.WriteServiceError(w, r, err, nil)
		return
	}
	claims, err := h.TM.ParseRefresh(req.RefreshToken)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token", nil)
		return
	}
	h.issue(w, r, claims.UserID, claims.Role)
}

func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, userID, role string) {
	access, refresh, exp, err := h.TM.GeneratePair(userID, role)
	if err != nil {
		httpx.WriteServiceError(w, r, err, nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResp{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(exp).Truncate(time.Second) / time.Second),
	})
}
