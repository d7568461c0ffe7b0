package validate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/payments-core/internal/idempotency"
	"github.com/baharkarakas/payments-core/internal/models"
)

const MaxDescriptionLength = 500

// TransactionPayload is the raw create-transaction body.
type TransactionPayload struct {
	Amount              decimal.Decimal  `json:"amount" validate:"positive_decimal,cents"`
	CounterpartyKey     string           `json:"counterparty_key" validate:"required,max=140"`
	CounterpartyKeyType models.KeyType   `json:"counterparty_key_type" validate:"required,oneof=CPF EMAIL PHONE RANDOM"`
	Direction           models.Direction `json:"direction" validate:"omitempty,oneof=OUTBOUND INBOUND"`
	Description         *string          `json:"description,omitempty" validate:"omitempty,max=500"`
	IdempotencyKey      string           `json:"idempotency_key,omitempty" validate:"omitempty,max=100"`
	ScheduledAt         *time.Time       `json:"scheduled_at,omitempty"`
	Origin              *string          `json:"origin,omitempty" validate:"omitempty,max=100"`
}

// Transaction checks p at time now. Tag failures and the counterparty key
// format are reported together.
func Transaction(p TransactionPayload, now time.Time) error {
	err := Struct(p)
	var keyErr *ErrField
	if p.CounterpartyKeyType != "" && p.CounterpartyKey != "" {
		keyErr = CounterpartyKey("counterparty_key", p.CounterpartyKeyType, p.CounterpartyKey)
	}
	return Merge(err, keyErr, Future("scheduled_at", p.ScheduledAt, now))
}

// IdempotencyKey validates a key taken from a header.
func IdempotencyKey(field, key string) *ErrField {
	if key == "" {
		return nil
	}
	if err := idempotency.CheckKey(key); err != nil {
		return &ErrField{Field: field, Msg: "must be 1 to 100 non-blank characters"}
	}
	return nil
}

// Future rejects a non-nil t that is not after now.
func Future(field string, t *time.Time, now time.Time) *ErrField {
	if t != nil && !t.After(now) {
		return &ErrField{Field: field, Msg: "must be in the future"}
	}
	return nil
}
