package calc

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errors returned by the step quantization helpers.
var (
	ErrNonPositiveStep = errors.New("step must be > 0")
	ErrNegativeValue   = errors.New("value must be >= 0")
)

// FloorToStep quantizes value DOWN to the nearest multiple of step.
//
// The quotient is computed exactly (integer quotient and remainder), so the
// result is never rounded up past value regardless of how many digits the
// ratio carries. Intended for non-negative money and size values.
func FloorToStep(value, step decimal.Decimal) (decimal.Decimal, error) {
	if err := checkStepArgs(value, step); err != nil {
		return decimal.Decimal{}, err
	}
	q, _ := value.QuoRem(step, 0)
	return q.Mul(step), nil
}

// CeilToStep quantizes value UP to the nearest multiple of step.
func CeilToStep(value, step decimal.Decimal) (decimal.Decimal, error) {
	if err := checkStepArgs(value, step); err != nil {
		return decimal.Decimal{}, err
	}
	q, r := value.QuoRem(step, 0)
	if !r.IsZero() {
		q = q.Add(decimal.NewFromInt(1))
	}
	return q.Mul(step), nil
}

func checkStepArgs(value, step decimal.Decimal) error {
	if !step.IsPositive() {
		return fmt.Errorf("%w, got %s", ErrNonPositiveStep, step)
	}
	if value.IsNegative() {
		return fmt.Errorf("%w, got %s", ErrNegativeValue, value)
	}
	return nil
}
