// Package output provides output formatting interfaces.
// This package produces human and machine-readable offers.
package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"structcalc/core/catalog"
	"structcalc/core/pricing"
	"structcalc/core/types"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable terminal summary
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatText is the plain-text export
	FormatText Format = "txt"

	// FormatHTML is the printable offer
	FormatHTML Format = "html"

	// FormatPDF is the offer as an A4 document
	FormatPDF Format = "pdf"

	// FormatXLSX is the offer as a spreadsheet
	FormatXLSX Format = "xlsx"
)

// Extension returns the file extension used for exports
func (f Format) Extension() string {
	if f == FormatCLI {
		return "txt"
	}
	return string(f)
}

// ContentType returns the MIME type served over HTTP
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given offer
	Render(w io.Writer, offer *Offer) error
}

// Labels shared by every format
const (
	OfferTitle    = "Minimum design cost - STRUCTURAL PART"
	UntitledName  = "Untitled object"
	TotalLabel    = "TOTAL (excl. VAT):"
	MethodLabel   = "Method of calculation"
	InputLabel    = "Input data"
	discretionary = "at discretion"
)

// Offer is a priced input ready for presentation
type Offer struct {
	// Input is the form state that was priced
	Input types.PricingInput `json:"input"`

	// Result is the calculator output
	Result types.CalculationResult `json:"result"`

	// Category is the category of the selected type, if any
	Category *catalog.Category `json:"category,omitempty"`

	// Type is the selected construction type, if any
	Type *catalog.ConstructionType `json:"type,omitempty"`

	// GeneratedAt is when the offer was produced
	GeneratedAt time.Time `json:"generatedAt"`
}

// NewOffer resolves the selected type for presentation. A nil catalog
// means the built-in table.
func NewOffer(in types.PricingInput, result types.CalculationResult, cat *catalog.Catalog, now time.Time) *Offer {
	if cat == nil {
		cat = catalog.Default()
	}
	offer := &Offer{Input: in, Result: result, GeneratedAt: now}
	if ct, ok := cat.Lookup(in.ProjectType); ok {
		offer.Type = &ct
		if c, ok := cat.Category(ct.Category); ok {
			offer.Category = &c
		}
	}
	return offer
}

// Currency returns the display currency of the offer
func (o *Offer) Currency() types.CurrencyDisplay {
	return o.Input.CurrencyDisplay.OrDefault()
}

// ObjectName returns the object name, or a placeholder
func (o *Offer) ObjectName() string {
	if name := strings.TrimSpace(o.Input.ObjectName); name != "" {
		return name
	}
	return UntitledName
}

// Total returns the formatted total
func (o *Offer) Total() string {
	return FormatMoney(o.Result.Total, o.Currency())
}

// Lines returns the derivation log in the display currency
func (o *Offer) Lines() []string {
	return RenderLog(o.Result.Log, o.Currency())
}

// Row is one line of the input data table
type Row struct {
	Label  string
	Values []string
}

// InputRows summarizes the input the way the form shows it
func (o *Offer) InputRows() []Row {
	var rows []Row
	in := o.Input

	if o.Category != nil {
		rows = append(rows, Row{Label: "Category", Values: []string{o.Category.Name}})
	}
	if o.Type == nil {
		return rows
	}
	rows = append(rows, Row{Label: "Project type", Values: []string{o.Type.Name}})

	craneEligible := o.Category != nil && o.Category.CraneEligible()
	showArea := o.Type.Strategy == catalog.StrategyPerArea || craneEligible
	if showArea && in.Area > 0 {
		rows = append(rows, Row{Label: "Area", Values: []string{num(in.Area) + " m²"}})
	}

	if o.Type.Strategy == catalog.StrategyRetainingWall {
		rows = append(rows, Row{Label: "Wall sections", Values: []string{strconv.Itoa(in.WallSections) + " pcs"}})
		if in.AdditionalLength > 0 {
			rows = append(rows, Row{Label: "Additional length", Values: []string{num(in.AdditionalLength) + " m"}})
		}
	}

	var coefficients []string
	if in.HasCrane && craneEligible {
		coefficients = append(coefficients, "Hall with crane")
	}
	if in.HasComplexity {
		pct := discretionary
		if in.ComplexityPercentage > 0 {
			pct = num(in.ComplexityPercentage)
		}
		coefficients = append(coefficients, fmt.Sprintf("Complex geometry or terrain (+%s%%)", pct))
	}
	if in.IsAccelerated {
		coefficients = append(coefficients, fmt.Sprintf("Accelerated design (+%s%%)", num(pricing.AccelerationPercent)))
	}
	if in.IncludeSupervision {
		coefficients = append(coefficients, fmt.Sprintf("Author's supervision (+%s%%)", num(pricing.SupervisionPercent)))
	}
	if len(coefficients) > 0 {
		rows = append(rows, Row{Label: "Coefficients", Values: coefficients})
	}

	return rows
}

// FileName names an export of this offer in the given format
func (o *Offer) FileName(format Format) string {
	return FileName(o.Input.ObjectName, format.Extension(), o.GeneratedAt)
}

// FormatterRegistry manages formatter registration
type FormatterRegistry interface {
	// Register adds a formatter to the registry
	Register(formatter Formatter) error

	// GetFormatter returns a formatter for a format type
	GetFormatter(format Format) (Formatter, bool)

	// GetAll returns all registered formatters
	GetAll() []Formatter

	// Formats lists the registered format names
	Formats() []string
}

// Registry is the default FormatterRegistry
type Registry struct {
	mu         sync.RWMutex
	formatters map[Format]Formatter
}

var _ FormatterRegistry = (*Registry)(nil)

// NewRegistry creates a registry with the given formatters
func NewRegistry(formatters ...Formatter) *Registry {
	r := &Registry{formatters: make(map[Format]Formatter)}
	for _, f := range formatters {
		r.formatters[f.Format()] = f
	}
	return r
}

// DefaultRegistry returns a registry with every file format
func DefaultRegistry() *Registry {
	return NewRegistry(
		TextFormatter{},
		NewHTMLFormatter(),
		JSONFormatter{Indent: true},
		PDFFormatter{},
		XLSXFormatter{},
	)
}

// Register adds a formatter. Registering a format twice is an error.
func (r *Registry) Register(formatter Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[formatter.Format()]; exists {
		return fmt.Errorf("formatter for %q already registered", formatter.Format())
	}
	r.formatters[formatter.Format()] = formatter
	return nil
}

// GetFormatter returns the formatter for a format
func (r *Registry) GetFormatter(format Format) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formatters[format]
	return f, ok
}

// GetAll returns all formatters ordered by format name
func (r *Registry) GetAll() []Formatter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Formatter, 0, len(r.formatters))
	for _, f := range r.formatters {
		all = append(all, f)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Format() < all[j].Format() })
	return all
}

// Formats lists the registered format names
func (r *Registry) Formats() []string {
	all := r.GetAll()
	names := make([]string, len(all))
	for i, f := range all {
		names[i] = string(f.Format())
	}
	return names
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
