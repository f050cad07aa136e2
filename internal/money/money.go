// Package money holds the fixed-point helpers used wherever cart totals are
// computed. All amounts carry two decimal places and round half-up.
package money

import "github.com/shopspring/decimal"

// Places is the number of fractional digits kept for every amount.
const Places = 2

var hundred = decimal.NewFromInt(100)

// Zero returns 0.00.
func Zero() decimal.Decimal {
	return decimal.New(0, -Places)
}

// Round rounds d to two places, half away from zero. Cart amounts are never
// negative, so this matches conventional half-up currency rounding.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Clamp bounds d to [lo, hi].
func Clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Max(lo, decimal.Min(d, hi))
}

// PercentFactor converts a percentage (10 for 10%) into a multiplier rounded to
// two places, so 12.5 becomes 0.13.
func PercentFactor(percent decimal.Decimal) decimal.Decimal {
	return Round(percent.Div(hundred))
}

// Format renders d with exactly two fractional digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// Parse reads an amount from its textual form.
func Parse(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
