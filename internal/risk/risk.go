// Package risk scores money-movement requests against a set of weighted rules.
//
// Every rule contributes either zero or its fixed weight. The sum is capped at
// 100 and mapped to a three-tier level (BAIXO, MEDIO, ALTO). Requests at the
// ALTO level are not approved.
package risk

import (
	"github.com/shopspring/decimal"
)

// Level is the coarse risk classification derived from the score.
type Level string

const (
	LevelLow    Level = "BAIXO"
	LevelMedium Level = "MEDIO"
	LevelHigh   Level = "ALTO"
)

const (
	MaxScore = 100

	// HighRiskScore is the first score classified as ALTO.
	HighRiskScore = 70

	// MaxAttempts is the sanity cap for the trailing-24h attempt counter.
	MaxAttempts = 100

	DefaultChannel = "PIX"
)

// Request is a validated risk input. Build it with validate.RiskInput or by
// hand from trusted values; the engine does not re-validate.
type Request struct {
	Amount   decimal.Decimal `json:"amount"`
	Hour     int             `json:"-"`
	Minute   int             `json:"-"`
	Attempts int             `json:"attempts_last_24h"`
	Channel  string          `json:"channel"`
	Origin   *string         `json:"origin,omitempty"`
}

// Verdict is the immutable result of one evaluation.
type Verdict struct {
	Score          int      `json:"score"`
	Approved       bool     `json:"approved"`
	Reason         string   `json:"reason"`
	ActivatedRules []string `json:"activated_rules"`
	Level          Level    `json:"level"`
	Recommendation string   `json:"recommendation"`
}

// Rule is one independent risk indicator.
type Rule interface {
	ID() string
	Weight() int
	Fires(req Request) bool
}
