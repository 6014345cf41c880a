package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"structcalc/core/types"
)

// PDFFormatter writes the offer as an A4 document
type PDFFormatter struct{}

// Format returns FormatPDF
func (PDFFormatter) Format() Format { return FormatPDF }

var (
	pdfGrey   = &props.Color{Red: 100, Green: 100, Blue: 100}
	pdfAccent = &props.Color{Red: 33, Green: 37, Blue: 41}
)

// The built-in PDF fonts are single-byte, so symbols are spelled out.
var pdfSymbols = strings.NewReplacer(
	"€", "EUR",
	"лв.", "BGN",
	"m²", "m2",
	"×", "x",
)

func pdfText(s string) string {
	return pdfSymbols.Replace(s)
}

// Render lays out title, input table, derivation and total
func (PDFFormatter) Render(w io.Writer, offer *Offer) error {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   pdfGrey,
		}).
		Build()

	m := maroto.New(cfg)

	addPDFHeader(m, offer)
	addPDFInput(m, offer)
	addPDFMethod(m, offer)
	addPDFTotal(m, offer)

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate offer PDF: %w", err)
	}
	_, err = w.Write(doc.GetBytes())
	return err
}

func addPDFHeader(m core.Maroto, offer *Offer) {
	m.AddRows(
		row.New(10).Add(
			col.New(12).Add(text.New(OfferTitle, props.Text{
				Size:  14,
				Style: fontstyle.Bold,
				Align: align.Center,
				Color: pdfAccent,
			})),
		),
		row.New(8).Add(
			col.New(8).Add(text.New(pdfText(offer.ObjectName()), props.Text{
				Size:  11,
				Style: fontstyle.Bold,
				Align: align.Left,
			})),
			col.New(4).Add(text.New(offer.GeneratedAt.Format("02.01.2006"), props.Text{
				Size:  9,
				Align: align.Right,
				Color: pdfGrey,
			})),
		),
		row.New(4),
	)
}

func addPDFInput(m core.Maroto, offer *Offer) {
	rows := offer.InputRows()
	if len(rows) == 0 {
		return
	}

	m.AddRows(pdfSection(InputLabel))
	for _, r := range rows {
		for i, value := range r.Values {
			label := ""
			if i == 0 {
				label = r.Label
			}
			m.AddRows(row.New(6).Add(
				col.New(4).Add(text.New(label, props.Text{
					Size:  9,
					Style: fontstyle.Bold,
					Align: align.Left,
					Color: pdfGrey,
				})),
				col.New(8).Add(text.New(pdfText(value), props.Text{
					Size:  9,
					Align: align.Left,
				})),
			))
		}
	}
	m.AddRows(row.New(4))
}

func addPDFMethod(m core.Maroto, offer *Offer) {
	m.AddRows(pdfSection(MethodLabel))

	currency := offer.Currency()
	for _, e := range offer.Result.Log {
		style := fontstyle.Normal
		if e.Kind != types.EntryLine {
			style = fontstyle.Bold
		}
		// wall length additions continue the entry on a new line
		for _, line := range strings.Split(RenderEntry(e, currency), "\n") {
			m.AddRows(row.New(6).Add(
				col.New(12).Add(text.New(pdfText(line), props.Text{
					Size:  9,
					Style: style,
					Align: align.Left,
				})),
			))
		}
	}
	m.AddRows(row.New(4))
}

func addPDFTotal(m core.Maroto, offer *Offer) {
	if offer.Result.Status != types.StatusComputed {
		return
	}
	m.AddRows(row.New(10).Add(
		col.New(7).Add(text.New(TotalLabel, props.Text{
			Size:  11,
			Style: fontstyle.Bold,
			Align: align.Right,
		})),
		col.New(5).Add(text.New(pdfText(offer.Total()), props.Text{
			Size:  11,
			Style: fontstyle.Bold,
			Align: align.Right,
			Color: pdfAccent,
		})),
	))
}

func pdfSection(title string) core.Row {
	return row.New(8).Add(
		col.New(12).Add(text.New(strings.ToUpper(title), props.Text{
			Size:  8,
			Style: fontstyle.Bold,
			Align: align.Left,
			Color: pdfGrey,
		})),
	)
}
