// Package money converts between the decimal amounts used on the wire and
// the integer cents used everywhere inside the engine.
//
// The frontend transmits amounts as decimal numbers. All splitting and
// balance arithmetic happens in cents to avoid floating-point drift; the
// conversion back to decimals happens only when rendering a response.
package money

import (
	"errors"
	"math"
)

// ErrInvalidAmount is returned for amounts that cannot be represented as a
// positive number of cents.
var ErrInvalidAmount = errors.New("invalid amount")

// maxDecimal guards the float->int64 conversion against overflow.
const maxDecimal = float64(math.MaxInt64) / 100

// ToCents converts a decimal amount to cents with half-up rounding on the
// sub-cent part. The amount must be positive.
//
// Examples:
//
//	ToCents(12.34)  -> 1234, nil
//	ToCents(12.345) -> 1235, nil
//	ToCents(0)      -> 0, ErrInvalidAmount
func ToCents(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, ErrInvalidAmount
	}
	if amount <= 0 || amount > maxDecimal {
		return 0, ErrInvalidAmount
	}
	cents := int64(math.Round(amount * 100))
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// FromCents returns the decimal value of cents for display purposes.
// Use cents for calculations, never this.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}
