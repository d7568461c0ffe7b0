package validate

import (
	"strconv"
	"strings"
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// Errs is the ValidationError of the API: every rejected field of one
// request.
type Errs []ErrField

func (e Errs) Error() string { // error interface
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

// Collect keeps the non-nil field errors; it returns nil when there are none.
func Collect(fields ...*ErrField) error {
	var out Errs
	for _, f := range fields {
		if f != nil {
			out = append(out, *f)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Merge appends field errors from err (when it is an Errs) to extra.
func Merge(err error, extra ...*ErrField) error {
	var out Errs
	if errs, ok := err.(Errs); ok {
		out = append(out, errs...)
	} else if err != nil {
		return err
	}
	if more, ok := Collect(extra...).(Errs); ok {
		out = append(out, more...)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Helpers
func Required(field, value string) *ErrField {
	if strings.TrimSpace(value) == "" {
		return &ErrField{Field: field, Msg: "required"}
	}
	return nil
}

func MinInt(field string, v, min int64) *ErrField {
	if v < min {
		return &ErrField{Field: field, Msg: "must be >= " + strconv.FormatInt(min, 10)}
	}
	return nil
}

func MaxLen(field, value string, max int) *ErrField {
	if len(value) > max {
		return &ErrField{Field: field, Msg: "must be at most " + strconv.Itoa(max) + " characters"}
	}
	return nil
}

// ClockTime parses "HH:MM" on a 24h clock.
func ClockTime(field, value string) (hour, minute int, ef *ErrField) {
	bad := &ErrField{Field: field, Msg: "invalid time format, use HH:MM"}
	h, m, ok := strings.Cut(value, ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, 0, bad
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, bad
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, bad
	}
	return hour, minute, nil
}
