// Package validation checks incoming requests before they reach the ledger.
package validation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Error is a user-facing rejection carrying the first failing rule's message
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NUMERIC(38,18) limits for request amounts
const (
	maxIntegerDigits    = 20
	maxFractionalDigits = 18
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
	errValidate  error
)

// messages keyed by "<StructField>.<tag>"; anything missing falls back to a generic message
var messages = map[string]string{
	"Sum.positive_decimal":     "top-up sum must be greater than 0",
	"SumFrom.positive_decimal": "conversion sum must be greater than 0",
	"Rate.positive_decimal":    "conversion rate must be greater than 0",
	"Sum.decimal_bounds":       "top-up sum must have at most 20 integer and 18 fractional digits",
	"SumFrom.decimal_bounds":   "conversion sum must have at most 20 integer and 18 fractional digits",
	"Rate.decimal_bounds":      "conversion rate must have at most 20 integer and 18 fractional digits",
	"CommissionPercent.gt":     "commission percent must be greater than 0 and at most 100",
	"CommissionPercent.lte":    "commission percent must be greater than 0 and at most 100",
	"Name.required":            "name is required",
	"Name.max":                 "name is too long",
}

func initValidator() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())

	// decimal.Decimal is validated through the field itself; registering a
	// custom type func returning the same type would loop forever.
	if err := vld.RegisterValidation("positive_decimal", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		return value.IsPositive()
	}); err != nil {
		return nil, fmt.Errorf("register positive_decimal: %w", err)
	}

	if err := vld.RegisterValidation("decimal_bounds", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		return withinBounds(value)
	}); err != nil {
		return nil, fmt.Errorf("register decimal_bounds: %w", err)
	}

	return vld, nil
}

// withinBounds only looks at the exponent and the coefficient length, so a
// value like 1e20000000 is rejected without ever being rescaled.
func withinBounds(value decimal.Decimal) bool {
	exp := int64(value.Exponent())
	if exp < -maxFractionalDigits {
		return false
	}
	return int64(value.NumDigits())+exp <= maxIntegerDigits
}

func getValidator() (*validator.Validate, error) {
	validateOnce.Do(func() {
		validate, errValidate = initValidator()
	})
	return validate, errValidate
}

// Validate checks req against its `validate` tags. It returns nil when every
// rule passes, a *Error with the first message otherwise.
func Validate(req any) error {
	vld, err := getValidator()
	if err != nil {
		return err
	}

	err = vld.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		return &Error{Message: message(fieldErrors[0])}
	}
	return fmt.Errorf("validate request: %w", err)
}

func message(fe validator.FieldError) string {
	if msg, ok := messages[fe.StructField()+"."+fe.Tag()]; ok {
		return msg
	}
	return fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag())
}
