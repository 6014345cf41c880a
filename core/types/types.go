// Package types defines the domain types shared across layers: the
// calculation input and result, the derivation log and saved projects.
// Input also carries the form transitions that reset dependent fields.
package types

// CurrencyDisplay selects how amounts are shown. Calculations always run
// in the reference currency (EUR); this only affects formatting.
type CurrencyDisplay string

const (
	CurrencyEUR  CurrencyDisplay = "eur"
	CurrencyBGN  CurrencyDisplay = "bgn"
	CurrencyBoth CurrencyDisplay = "both"
)

// String returns the string representation
func (c CurrencyDisplay) String() string {
	return string(c)
}

// Valid reports whether c is a known display mode
func (c CurrencyDisplay) Valid() bool {
	switch c {
	case CurrencyEUR, CurrencyBGN, CurrencyBoth:
		return true
	default:
		return false
	}
}

// OrDefault returns c, or EUR when c is empty or unknown
func (c CurrencyDisplay) OrDefault() CurrencyDisplay {
	if c.Valid() {
		return c
	}
	return CurrencyEUR
}
