// Package money formats and parses monetary and hour amounts for display.
// Calculations stay in float64; rounding happens only here.
package money

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Format renders v with exactly two decimals, rounding half away from zero.
// NaN and infinities are rendered as "NaN", "+Inf" and "-Inf".
func Format(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatWithCurrency renders v as "<currency> 1234.50". An empty currency
// yields the bare number.
func FormatWithCurrency(v float64, currency string) string {
	if currency == "" {
		return Format(v)
	}
	return currency + " " + Format(v)
}

// Parse reads a non-negative decimal amount. Both "12.5" and "12,5" are accepted.
func Parse(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	v := d.InexactFloat64()
	if math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}
