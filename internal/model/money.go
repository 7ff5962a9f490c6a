package model

import "github.com/shopspring/decimal"

// FormatMoney renders a monetary amount with exactly two fractional digits,
// rounding half away from zero.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
