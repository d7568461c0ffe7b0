package validate

import (
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/baharkarakas/payments-core/internal/models"
)

// CounterpartyKey checks key against the format of its type.
func CounterpartyKey(field string, keyType models.KeyType, key string) *ErrField {
	if strings.TrimSpace(key) == "" {
		return &ErrField{Field: field, Msg: "required"}
	}
	var ok bool
	switch keyType {
	case models.KeyCPF:
		ok = validCPF(key)
	case models.KeyEmail:
		ok = validEmail(key)
	case models.KeyPhone:
		ok = validPhone(key)
	case models.KeyRandom:
		_, err := uuid.Parse(key)
		ok = err == nil
	default:
		return &ErrField{Field: field + "_type", Msg: "must be one of [CPF EMAIL PHONE RANDOM]"}
	}
	if !ok {
		return &ErrField{Field: field, Msg: "invalid " + strings.ToLower(string(keyType)) + " key"}
	}
	return nil
}

// NormalizeKey strips formatting from numeric keys so that "529.982.247-25"
// and "52998224725" address the same counterparty.
func NormalizeKey(keyType models.KeyType, key string) string {
	key = strings.TrimSpace(key)
	switch keyType {
	case models.KeyCPF:
		return digitsOnly(key)
	case models.KeyPhone:
		if strings.HasPrefix(key, "+") {
			return "+" + digitsOnly(key)
		}
		return digitsOnly(key)
	case models.KeyEmail, models.KeyRandom:
		return strings.ToLower(key)
	}
	return key
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func validCPF(s string) bool {
	for _, r := range s {
		if !(r >= '0' && r <= '9') && r != '.' && r != '-' {
			return false
		}
	}
	d := digitsOnly(s)
	if len(d) != 11 || strings.Count(d, d[:1]) == 11 {
		return false
	}
	check := func(n int) bool {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(d[i]-'0') * (n + 1 - i)
		}
		r := sum * 10 % 11
		if r == 10 {
			r = 0
		}
		return r == int(d[n]-'0')
	}
	return check(9) && check(10)
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	_, domain, _ := strings.Cut(s, "@")
	return strings.Contains(domain, ".")
}

func validPhone(s string) bool {
	s = strings.TrimPrefix(s, "+")
	if len(s) < 10 || len(s) > 13 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
