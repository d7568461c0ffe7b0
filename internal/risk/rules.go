package risk

import "github.com/shopspring/decimal"

const (
	RuleHighValue         = "HIGH_VALUE"
	RuleNightHours        = "NIGHT_HOURS"
	RuleExcessiveAttempts = "EXCESSIVE_ATTEMPTS"
)

var (
	DefaultHighValueThreshold = decimal.NewFromInt(300)
	DefaultAttemptsLimit      = 3
)

// HighValueRule fires when the amount is strictly above Threshold.
type HighValueRule struct {
	Threshold decimal.Decimal
}

func (r HighValueRule) ID() string  { return RuleHighValue }
func (r HighValueRule) Weight() int { return 30 }

func (r HighValueRule) Fires(req Request) bool {
	return req.Amount.GreaterThan(r.Threshold)
}

// NightHoursRule fires for hours in [22, 24) and [0, 6). Only the hour is
// considered, so 06:01 does not fire.
type NightHoursRule struct{}

func (NightHoursRule) ID() string  { return RuleNightHours }
func (NightHoursRule) Weight() int { return 40 }

func (NightHoursRule) Fires(req Request) bool {
	return req.Hour < 6 || req.Hour >= 22
}

// ExcessiveAttemptsRule fires when the trailing-24h attempts exceed Limit.
type ExcessiveAttemptsRule struct {
	Limit int
}

func (r ExcessiveAttemptsRule) ID() string  { return RuleExcessiveAttempts }
func (r ExcessiveAttemptsRule) Weight() int { return 50 }

func (r ExcessiveAttemptsRule) Fires(req Request) bool {
	return req.Attempts > r.Limit
}

// DefaultRules returns the standard rule set in evaluation order.
func DefaultRules() []Rule {
	return Rules(DefaultHighValueThreshold, DefaultAttemptsLimit)
}

// Rules returns the standard rule set with the given thresholds.
func Rules(highValue decimal.Decimal, attemptsLimit int) []Rule {
	return []Rule{
		HighValueRule{Threshold: highValue},
		NightHoursRule{},
		ExcessiveAttemptsRule{Limit: attemptsLimit},
	}
}
