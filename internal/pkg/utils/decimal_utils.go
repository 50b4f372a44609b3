package utils

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ScaleBaseUnit converts a base-unit balance string to a human-scale float by
// dividing through 10^decimals. Returns an error for non-numeric input so the
// caller can degrade the token instead of silently valuing garbage.
func ScaleBaseUnit(balance string, decimals uint8) (float64, error) {
	d, err := decimal.NewFromString(balance)
	if err != nil {
		return 0, fmt.Errorf("invalid base-unit balance %q: %w", balance, err)
	}
	f, _ := d.Shift(-int32(decimals)).Float64()
	return f, nil
}

// ShiftDecimalString multiplies a decimal string by 10^exp and renders the
// result as a fixed-point string (no scientific notation, no precision loss
// within the input's own precision).
func ShiftDecimalString(value string, exp int32) (string, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return "", fmt.Errorf("invalid decimal value %q: %w", value, err)
	}
	return d.Shift(exp).String(), nil
}

// ParseAmount parses a plain decimal string into a float64.
func ParseAmount(value string) (float64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	f, _ := d.Float64()
	return f, nil
}

// FormatBigInt converts a big.Int value to a human-readable decimal string,
// considering the given number of decimals.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatBigInt(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}
