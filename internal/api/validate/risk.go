package validate

import (
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/payments-core/internal/risk"
)

// RiskPayload is the raw risk-evaluation input as received from a caller.
type RiskPayload struct {
	Amount   decimal.Decimal `json:"amount" validate:"positive_decimal"`
	Time     string          `json:"time" validate:"required,clock"`
	Attempts *int            `json:"attempts_last_24h" validate:"required,gte=0,lte=100"`
	Channel  string          `json:"channel" validate:"omitempty,max=20"`
	Origin   *string         `json:"origin,omitempty" validate:"omitempty,max=100"`
}

// RiskInput validates p and converts it into an engine request. Invalid input
// never reaches the engine.
func RiskInput(p RiskPayload) (risk.Request, error) {
	if err := Struct(p); err != nil {
		return risk.Request{}, err
	}
	hour, minute, _ := ClockTime("time", p.Time)
	channel := p.Channel
	if channel == "" {
		channel = risk.DefaultChannel
	}
	return risk.Request{
		Amount:   p.Amount,
		Hour:     hour,
		Minute:   minute,
		Attempts: *p.Attempts,
		Channel:  channel,
		Origin:   p.Origin,
	}, nil
}
