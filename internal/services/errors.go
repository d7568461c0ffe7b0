package services

import (
	"errors"
	"strings"

	"github.com/baharkarakas/payments-core/internal/risk"
)

var (
	// ErrInsufficientFunds is returned when the ledger balance does not cover
	// an outbound amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrRiskRejected = errors.New("risk rejected")

	// ErrKeyInUse is returned when an idempotency key already belongs to
	// another user's transaction.
	ErrKeyInUse = errors.New("idempotency key already in use")
)

// RiskRejectedError carries the verdict that refused the transaction.
type RiskRejectedError struct {
	Verdict risk.Verdict
}

func (e *RiskRejectedError) Error() string {
	return "risk rejected: " + e.Verdict.Reason + " [" + strings.Join(e.Verdict.ActivatedRules, ",") + "]"
}

func (e *RiskRejectedError) Is(target error) bool { return target == ErrRiskRejected }

// Failure reasons stored on FAILED records and used as metric labels.
const (
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonRiskRejected      = "risk_rejected"
	ReasonExecution         = "execution_error"
)
