package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	vldOnce sync.Once
	vld     *validator.Validate
	vldErr  error
)

func instance() (*validator.Validate, error) {
	vldOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		custom := map[string]validator.Func{
			"positive_decimal": func(fl validator.FieldLevel) bool {
				d, ok := fl.Field().Interface().(decimal.Decimal)
				return ok && d.IsPositive()
			},
			"cents": func(fl validator.FieldLevel) bool {
				d, ok := fl.Field().Interface().(decimal.Decimal)
				return ok && d.Equal(d.Round(2))
			},
			"clock": func(fl validator.FieldLevel) bool {
				_, _, ef := ClockTime("", fl.Field().String())
				return ef == nil
			},
		}
		for tag, fn := range custom {
			if err := v.RegisterValidation(tag, fn); err != nil {
				vldErr = fmt.Errorf("register %q: %w", tag, err)
				return
			}
		}
		vld = v
	})
	return vld, vldErr
}

var messages = map[string]func(param string) string{
	"required":         func(string) string { return "required" },
	"max":              func(p string) string { return "must be at most " + p },
	"min":              func(p string) string { return "must be at least " + p },
	"gte":              func(p string) string { return "must be >= " + p },
	"lte":              func(p string) string { return "must be <= " + p },
	"oneof":            func(p string) string { return "must be one of [" + p + "]" },
	"uuid":             func(string) string { return "must be a UUID" },
	"positive_decimal": func(string) string { return "must be > 0" },
	"cents":            func(string) string { return "must have at most 2 decimal places" },
	"clock":            func(string) string { return "invalid time format, use HH:MM" },
}

// Struct validates payload against its `validate` tags and reports every
// failing field as Errs.
func Struct(payload any) error {
	v, err := instance()
	if err != nil {
		return err
	}
	err = v.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(Errs, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := "failed " + fe.Tag() + " check"
		if f, ok := messages[fe.Tag()]; ok {
			msg = f(fe.Param())
		}
		out = append(out, ErrField{Field: fe.Field(), Msg: msg})
	}
	return out
}
