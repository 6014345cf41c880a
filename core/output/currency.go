// Package output - Currency formatting
// All amounts are computed in EUR; BGN is derived at display time only.
package output

import (
	"github.com/shopspring/decimal"

	"structcalc/core/types"
)

// EURToBGN is the fixed conversion rate of the currency board
var EURToBGN = decimal.RequireFromString("1.95583")

// FormatMoney formats an EUR amount for the given display mode, rounded to
// cents: "12.50 €", "24.45 лв." or "24.45 лв. (12.50 €)".
func FormatMoney(eur float64, currency types.CurrencyDisplay) string {
	amount := decimal.NewFromFloat(eur)
	euro := amount.StringFixed(2) + " €"

	switch currency.OrDefault() {
	case types.CurrencyBGN:
		return ToBGN(amount).StringFixed(2) + " лв."
	case types.CurrencyBoth:
		return ToBGN(amount).StringFixed(2) + " лв. (" + euro + ")"
	default:
		return euro
	}
}

// ToBGN converts an EUR amount at the fixed rate
func ToBGN(eur decimal.Decimal) decimal.Decimal {
	return eur.Mul(EURToBGN)
}

// RenderEntry renders one log entry with money in the display currency
func RenderEntry(e types.LogEntry, currency types.CurrencyDisplay) string {
	return e.Render(func(eur float64) string {
		return FormatMoney(eur, currency)
	})
}

// RenderLog renders every entry, in order
func RenderLog(log []types.LogEntry, currency types.CurrencyDisplay) []string {
	lines := make([]string, len(log))
	for i, e := range log {
		lines[i] = RenderEntry(e, currency)
	}
	return lines
}
