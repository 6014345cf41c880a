package ui

import (
	"io"
	"strconv"
	"strings"
	"time"

	"structcalc/core/catalog"
	"structcalc/core/output"
	"structcalc/core/types"
)

// PriceSummary renders an offer for the terminal
type PriceSummary struct {
	w     *Writer
	offer *output.Offer
}

// NewPriceSummary creates a summary view
func (w *Writer) NewPriceSummary(offer *output.Offer) *PriceSummary {
	return &PriceSummary{w: w, offer: offer}
}

// Render prints input, derivation and the total box
func (s *PriceSummary) Render() {
	offer := s.offer
	s.w.Header(offer.ObjectName())

	if rows := offer.InputRows(); len(rows) > 0 {
		s.w.SubHeader(output.InputLabel)
		for _, row := range rows {
			s.w.Println("  %s: %s", s.w.color(Dim, row.Label), strings.Join(row.Values, ", "))
		}
		s.w.Println("")
	}

	s.w.SubHeader(output.MethodLabel)
	currency := offer.Currency()
	for _, e := range offer.Result.Log {
		text := output.RenderEntry(e, currency)
		text = strings.ReplaceAll(text, "\n", "\n  ")
		switch {
		case offer.Result.Status == types.StatusError:
			s.w.Println("  %s", s.w.color(Red, text))
		case offer.Result.Status == types.StatusPending:
			s.w.Println("  %s", s.w.color(Yellow, text))
		case e.Kind == types.EntryLine:
			s.w.Println("  %s", text)
		default:
			s.w.Println("  %s", s.w.color(Bold, text))
		}
	}
	s.w.Println("")

	if offer.Result.Status != types.StatusComputed {
		return
	}

	label := output.TotalLabel + " " + offer.Total()
	bar := strings.Repeat("─", len([]rune(label))+4)
	s.w.Println("%s", s.w.color(Bold, "╭"+bar+"╮"))
	s.w.Println("%s%s%s", s.w.color(Bold, "│  "), s.w.color(Green, label), s.w.color(Bold, "  │"))
	s.w.Println("%s", s.w.color(Bold, "╰"+bar+"╯"))
}

// CLIFormatter adapts PriceSummary to the output.Formatter interface
type CLIFormatter struct {
	NoColor bool
}

var _ output.Formatter = CLIFormatter{}

// Format returns output.FormatCLI
func (CLIFormatter) Format() output.Format { return output.FormatCLI }

// Render prints the summary to w
func (f CLIFormatter) Render(w io.Writer, offer *output.Offer) error {
	NewWriter(w, f.NoColor).NewPriceSummary(offer).Render()
	return nil
}

// RenderCatalog prints every category and its types as a table
func (w *Writer) RenderCatalog(cat *catalog.Catalog, currency types.CurrencyDisplay) {
	for _, group := range cat.Groups() {
		w.SubHeader(group.Category.Code + ". " + group.Category.Name)
		table := w.NewTable("Key", "Type", "Price", "Strategy", "Area")
		for _, ct := range group.Types {
			price := output.FormatMoney(ct.BasePrice, currency)
			switch ct.Strategy {
			case catalog.StrategyPerArea:
				price += "/m²"
			case catalog.StrategyRetainingWall:
				price += "/section"
			}
			table.AddRow(ct.Key(), ct.Name, price, ct.Strategy.String(), areaRange(ct))
		}
		table.Render()
		w.Println("")
	}
}

// RenderProjects prints the saved projects in list order
func (w *Writer) RenderProjects(projects []types.SavedProject) {
	if len(projects) == 0 {
		w.Info("No saved projects")
		return
	}
	table := w.NewTable("#", "ID", "Name", "Type", "Modified", "")
	for i, p := range projects {
		state := ""
		if p.IsArchived {
			state = "archived"
		}
		modified := time.UnixMilli(p.LastModified).Format("2006-01-02 15:04")
		table.AddRow(strconv.Itoa(i+1), p.ID, p.Name, p.Data.ProjectType, modified, state)
	}
	table.Render()
}

func areaRange(ct catalog.ConstructionType) string {
	switch {
	case ct.MinArea != nil && ct.MaxArea != nil:
		return num(*ct.MinArea) + "-" + num(*ct.MaxArea) + " m²"
	case ct.MinArea != nil:
		return "≥ " + num(*ct.MinArea) + " m²"
	case ct.MaxArea != nil:
		return "≤ " + num(*ct.MaxArea) + " m²"
	default:
		return ""
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
