package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/payments-core/internal/models"
	"github.com/baharkarakas/payments-core/internal/risk"
)

func intp(v int) *int { return &v }

func TestClockTime(t *testing.T) {
	tests := []struct {
		in           string
		hour, minute int
		ok           bool
	}{
		{"14:30", 14, 30, true},
		{"00:00", 0, 0, true},
		{"23:59", 23, 59, true},
		{"6:01", 6, 1, true},
		{"25:00", 0, 0, false},
		{"12:60", 0, 0, false},
		{"1230", 0, 0, false},
		{"ab:cd", 0, 0, false},
		{"12:5", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		h, m, ef := ClockTime("time", tt.in)
		if !tt.ok {
			assert.NotNil(t, ef, tt.in)
			continue
		}
		require.Nil(t, ef, tt.in)
		assert.Equal(t, tt.hour, h)
		assert.Equal(t, tt.minute, m)
	}
}

func TestRiskInput_Valid(t *testing.T) {
	req, err := RiskInput(RiskPayload{
		Amount:   decimal.RequireFromString("350.00"),
		Time:     "14:00",
		Attempts: intp(1),
	})
	require.NoError(t, err)
	assert.Equal(t, 14, req.Hour)
	assert.Equal(t, 0, req.Minute)
	assert.Equal(t, 1, req.Attempts)
	assert.Equal(t, risk.DefaultChannel, req.Channel)
}

func TestRiskInput_Rejections(t *testing.T) {
	tests := map[string]struct {
		payload RiskPayload
		field   string
	}{
		"bad time":          {RiskPayload{Amount: decimal.NewFromInt(1), Time: "25:00", Attempts: intp(1)}, "time"},
		"missing attempts":  {RiskPayload{Amount: decimal.NewFromInt(1), Time: "10:00"}, "attempts_last_24h"},
		"negative attempts": {RiskPayload{Amount: decimal.NewFromInt(1), Time: "10:00", Attempts: intp(-1)}, "attempts_last_24h"},
		"oversized counter": {RiskPayload{Amount: decimal.NewFromInt(1), Time: "10:00", Attempts: intp(101)}, "attempts_last_24h"},
		"zero amount":       {RiskPayload{Amount: decimal.Zero, Time: "10:00", Attempts: intp(1)}, "amount"},
		"negative amount":   {RiskPayload{Amount: decimal.NewFromInt(-50), Time: "10:00", Attempts: intp(1)}, "amount"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := RiskInput(tt.payload)
			require.Error(t, err)
			var errs Errs
			require.True(t, errors.As(err, &errs))
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestCounterpartyKey(t *testing.T) {
	tests := []struct {
		keyType models.KeyType
		key     string
		ok      bool
	}{
		{models.KeyCPF, "52998224725", true},
		{models.KeyCPF, "529.982.247-25", true},
		{models.KeyCPF, "12345", false},
		{models.KeyCPF, "11111111111", false},
		{models.KeyCPF, "52998224724", false},
		{models.KeyEmail, "teste@email.com", true},
		{models.KeyEmail, "email-invalido", false},
		{models.KeyEmail, "Name <a@b.com>", false},
		{models.KeyPhone, "11987654321", true},
		{models.KeyPhone, "+5511987654321", true},
		{models.KeyPhone, "123", false},
		{models.KeyRandom, "3f2b8c1e-9a4d-4e6f-8b7a-1c2d3e4f5a6b", true},
		{models.KeyRandom, "not-a-uuid", false},
	}
	for _, tt := range tests {
		ef := CounterpartyKey("counterparty_key", tt.keyType, tt.key)
		if tt.ok {
			assert.Nil(t, ef, "%s %s", tt.keyType, tt.key)
		} else {
			assert.NotNil(t, ef, "%s %s", tt.keyType, tt.key)
		}
	}

	ef := CounterpartyKey("counterparty_key", "IBAN", "x")
	require.NotNil(t, ef)
	assert.Equal(t, "counterparty_key_type", ef.Field)
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "52998224725", NormalizeKey(models.KeyCPF, "529.982.247-25"))
	assert.Equal(t, "+5511987654321", NormalizeKey(models.KeyPhone, "+55 11 98765-4321"))
	assert.Equal(t, "a@b.com", NormalizeKey(models.KeyEmail, " A@B.com "))
}

func TestCollectAndMerge(t *testing.T) {
	assert.NoError(t, Collect(nil, nil))

	err := Collect(Required("a", ""), nil, MaxLen("b", "xyz", 2))
	var errs Errs
	require.True(t, errors.As(err, &errs))
	assert.Len(t, errs, 2)
	assert.Equal(t, "a: required; b: must be at most 2 characters", err.Error())

	merged := Merge(err, Required("c", ""))
	require.True(t, errors.As(merged, &errs))
	assert.Len(t, errs, 3)

	assert.NoError(t, Merge(nil))
	other := errors.New("boom")
	assert.Equal(t, other, Merge(other, Required("d", "")))
}

func TestTransaction(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	valid := TransactionPayload{
		Amount:              decimal.RequireFromString("150.00"),
		CounterpartyKey:     "529.982.247-25",
		CounterpartyKeyType: models.KeyCPF,
	}
	require.NoError(t, Transaction(valid, now))

	t.Run("collects every failure", func(t *testing.T) {
		p := valid
		p.Amount = decimal.RequireFromString("-1.005")
		p.CounterpartyKey = "111.111.111-11"
		past := now.Add(-time.Minute)
		p.ScheduledAt = &past

		err := Transaction(p, now)
		var errs Errs
		require.True(t, errors.As(err, &errs))
		fields := map[string]bool{}
		for _, ef := range errs {
			fields[ef.Field] = true
		}
		assert.True(t, fields["amount"])
		assert.True(t, fields["counterparty_key"])
		assert.True(t, fields["scheduled_at"])
	})

	t.Run("unknown key type", func(t *testing.T) {
		p := valid
		p.CounterpartyKeyType = "PIX"
		var errs Errs
		require.True(t, errors.As(Transaction(p, now), &errs))
		assert.Equal(t, "counterparty_key_type", errs[0].Field)
	})

	t.Run("future schedule accepted", func(t *testing.T) {
		p := valid
		later := now.Add(time.Hour)
		p.ScheduledAt = &later
		assert.NoError(t, Transaction(p, now))
	})
}

func TestIdempotencyKey(t *testing.T) {
	assert.Nil(t, IdempotencyKey("Idempotency-Key", ""))
	assert.Nil(t, IdempotencyKey("Idempotency-Key", "abc"))
	assert.NotNil(t, IdempotencyKey("Idempotency-Key", "   "))
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'k'
	}
	assert.NotNil(t, IdempotencyKey("Idempotency-Key", string(long)))
}
