// Package types - Calculation result and derivation log
package types

import (
	"fmt"
	"strings"
)

// Status tells a computed total apart from an empty form or a rejected one
type Status string

const (
	// StatusPending means required input is missing; nothing was computed
	StatusPending Status = "pending"

	// StatusError means the input was rejected (area out of bounds)
	StatusError Status = "error"

	// StatusComputed means Total is a real price
	StatusComputed Status = "computed"
)

// CalculationResult is the output of one calculation
type CalculationResult struct {
	// Total in EUR at full precision; 0 unless Status is computed
	Total float64 `json:"total"`

	// Log lists the derivation steps in the order they were applied
	Log []LogEntry `json:"log"`

	// IsError is true only for rejected input
	IsError bool `json:"isError"`

	// Status is the tri-state outcome
	Status Status `json:"status"`
}

// Lines renders every log entry in EUR
func (r CalculationResult) Lines() []string {
	lines := make([]string, len(r.Log))
	for i, e := range r.Log {
		lines[i] = e.Text()
	}
	return lines
}

// EntryKind classifies a derivation log entry
type EntryKind string

const (
	EntryHeader EntryKind = "header"
	EntryLine   EntryKind = "line"
	EntryTotal  EntryKind = "total"
)

// FragmentKind classifies a piece of a log entry
type FragmentKind string

const (
	FragmentText  FragmentKind = "text"
	FragmentMoney FragmentKind = "money"
	FragmentBreak FragmentKind = "break"
)

// Fragment is a piece of a log entry. Money fragments hold EUR values so
// that presentation can convert them without parsing text.
type Fragment struct {
	Kind  FragmentKind `json:"kind"`
	Text  string       `json:"text,omitempty"`
	Money float64      `json:"money,omitempty"`
}

// Text creates a plain text fragment
func Text(s string) Fragment {
	return Fragment{Kind: FragmentText, Text: s}
}

// Textf creates a formatted text fragment
func Textf(format string, args ...interface{}) Fragment {
	return Fragment{Kind: FragmentText, Text: fmt.Sprintf(format, args...)}
}

// Money creates a money fragment in EUR
func Money(eur float64) Fragment {
	return Fragment{Kind: FragmentMoney, Money: eur}
}

// Break creates a line break inside an entry
func Break() Fragment {
	return Fragment{Kind: FragmentBreak}
}

// LogEntry is one derivation step
type LogEntry struct {
	Kind      EntryKind  `json:"kind"`
	Fragments []Fragment `json:"fragments"`

	// Amount is the money value the step produced, if any
	Amount *float64 `json:"amount,omitempty"`
}

// Render joins the fragments, formatting money with the given function
// and breaks with newline.
func (e LogEntry) Render(money func(eur float64) string) string {
	var b strings.Builder
	for _, f := range e.Fragments {
		switch f.Kind {
		case FragmentMoney:
			b.WriteString(money(f.Money))
		case FragmentBreak:
			b.WriteByte('\n')
		default:
			b.WriteString(f.Text)
		}
	}
	return b.String()
}

// Text renders the entry in EUR
func (e LogEntry) Text() string {
	return e.Render(func(eur float64) string {
		return fmt.Sprintf("%.2f €", eur)
	})
}

// Header creates a header entry
func Header(fragments ...Fragment) LogEntry {
	return LogEntry{Kind: EntryHeader, Fragments: fragments}
}

// Line creates a line entry
func Line(fragments ...Fragment) LogEntry {
	return LogEntry{Kind: EntryLine, Fragments: fragments}
}

// LineWithAmount creates a line entry carrying the amount it produced
func LineWithAmount(amount float64, fragments ...Fragment) LogEntry {
	return LogEntry{Kind: EntryLine, Fragments: fragments, Amount: &amount}
}

// Total creates the final total entry
func Total(amount float64) LogEntry {
	return LogEntry{
		Kind:      EntryTotal,
		Fragments: []Fragment{Text("Total = "), Money(amount)},
		Amount:    &amount,
	}
}
