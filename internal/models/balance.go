package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Balance struct {
	UserID        string          `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	LastUpdatedAt time.Time       `json:"last_updated_at"`
}

// Covers reports whether the balance can pay amount.
func (b Balance) Covers(amount decimal.Decimal) bool {
	return b.Amount.GreaterThanOrEqual(amount)
}
