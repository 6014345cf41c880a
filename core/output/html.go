package output

import (
	"embed"
	"html/template"
	"io"

	"structcalc/core/types"
)

//go:embed templates/offer.html.tmpl
var templateFS embed.FS

var offerTemplate = template.Must(template.ParseFS(templateFS, "templates/offer.html.tmpl"))

// HTMLFormatter writes the printable offer page
type HTMLFormatter struct {
	tmpl *template.Template
}

// NewHTMLFormatter creates a formatter using the built-in page template
func NewHTMLFormatter() *HTMLFormatter {
	return &HTMLFormatter{tmpl: offerTemplate}
}

// Format returns FormatHTML
func (*HTMLFormatter) Format() Format { return FormatHTML }

type htmlEntry struct {
	Bold bool
	Text string
}

type htmlPage struct {
	Title       string
	ObjectName  string
	Rows        []Row
	Entries     []htmlEntry
	TotalLabel  string
	Total       string
	InputLabel  string
	MethodLabel string
}

// Render executes the page template. All text is escaped by the template.
func (f *HTMLFormatter) Render(w io.Writer, offer *Offer) error {
	currency := offer.Currency()
	entries := make([]htmlEntry, len(offer.Result.Log))
	for i, e := range offer.Result.Log {
		entries[i] = htmlEntry{
			Bold: e.Kind != types.EntryLine,
			Text: RenderEntry(e, currency),
		}
	}

	return f.tmpl.Execute(w, htmlPage{
		Title:       OfferTitle,
		ObjectName:  offer.ObjectName(),
		Rows:        offer.InputRows(),
		Entries:     entries,
		TotalLabel:  TotalLabel,
		Total:       offer.Total(),
		InputLabel:  InputLabel,
		MethodLabel: MethodLabel,
	})
}
