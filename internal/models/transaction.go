package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionOutbound Direction = "OUTBOUND"
	DirectionInbound  Direction = "INBOUND"
)

// KeyType tags the counterparty key of a transfer.
type KeyType string

const (
	KeyCPF    KeyType = "CPF"
	KeyEmail  KeyType = "EMAIL"
	KeyPhone  KeyType = "PHONE"
	KeyRandom KeyType = "RANDOM"
)

type TransactionState string

const (
	StateCreated    TransactionState = "CREATED"
	StateProcessing TransactionState = "PROCESSING"
	StateConfirmed  TransactionState = "CONFIRMED"
	StateFailed     TransactionState = "FAILED"
	StateCanceled   TransactionState = "CANCELED"
	StateScheduled  TransactionState = "SCHEDULED"
)

type Transaction struct {
	ID                  string           `json:"id"`
	Amount              decimal.Decimal  `json:"amount"`
	CounterpartyKey     string           `json:"counterparty_key"`
	CounterpartyKeyType KeyType          `json:"counterparty_key_type"`
	Direction           Direction        `json:"direction"`
	State               TransactionState `json:"state"`
	UserID              string           `json:"user_id"`
	IdempotencyKey      string           `json:"idempotency_key"`
	Description         *string          `json:"description,omitempty"`
	FailureReason       *string          `json:"failure_reason,omitempty"`
	CorrelationID       string           `json:"correlation_id"`
	ScheduledAt         *time.Time       `json:"scheduled_at,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}
