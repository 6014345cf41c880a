package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"structcalc/core/catalog"
	"structcalc/core/pricing"
	"structcalc/core/types"
)

// Sheet names
const (
	OfferSheet    = "Offer"
	ProjectsSheet = "Projects"
)

// ProjectsHeaders are the columns of the workspace summary sheet
var ProjectsHeaders = []string{"#", "Name", "Type", "Status", "Area (m²)", "Total (EUR)", "Total (BGN)", "Modified", "Archived"}

// XLSXFormatter writes the offer as a one-sheet workbook. Amounts are
// numeric cells in EUR next to the text in the display currency.
type XLSXFormatter struct{}

// Format returns FormatXLSX
func (XLSXFormatter) Format() Format { return FormatXLSX }

type xlsxStyles struct {
	title, header, bold, money int
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	var s xlsxStyles
	var err error

	if s.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	}); err != nil {
		return s, fmt.Errorf("create title style: %w", err)
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	}); err != nil {
		return s, fmt.Errorf("create header style: %w", err)
	}
	if s.bold, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
	}); err != nil {
		return s, fmt.Errorf("create bold style: %w", err)
	}
	// 4 is the built-in "#,##0.00"
	if s.money, err = f.NewStyle(&excelize.Style{NumFmt: 4}); err != nil {
		return s, fmt.Errorf("create money style: %w", err)
	}
	return s, nil
}

// Render writes title, input, derivation and total
func (XLSXFormatter) Render(w io.Writer, offer *Offer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), OfferSheet); err != nil {
		return fmt.Errorf("set sheet name: %w", err)
	}
	styles, err := newXLSXStyles(f)
	if err != nil {
		return err
	}
	sheet := OfferSheet
	f.SetColWidth(sheet, "A", "A", 70)
	f.SetColWidth(sheet, "B", "B", 16)

	f.SetCellValue(sheet, "A1", OfferTitle)
	f.SetCellStyle(sheet, "A1", "A1", styles.title)
	f.SetCellValue(sheet, "A2", "Object: "+sanitizeCell(offer.ObjectName()))
	f.SetCellValue(sheet, "A3", "Date: "+offer.GeneratedAt.Format("02.01.2006 15:04"))

	r := 5
	if rows := offer.InputRows(); len(rows) > 0 {
		f.SetCellValue(sheet, cell("A", r), InputLabel)
		f.SetCellStyle(sheet, cell("A", r), cell("B", r), styles.header)
		r++
		for _, row := range rows {
			f.SetCellValue(sheet, cell("A", r), row.Label+": "+strings.Join(row.Values, ", "))
			r++
		}
		r++
	}

	f.SetCellValue(sheet, cell("A", r), MethodLabel)
	f.SetCellValue(sheet, cell("B", r), "EUR")
	f.SetCellStyle(sheet, cell("A", r), cell("B", r), styles.header)
	r++

	currency := offer.Currency()
	for _, e := range offer.Result.Log {
		f.SetCellValue(sheet, cell("A", r), RenderEntry(e, currency))
		if e.Kind != types.EntryLine {
			f.SetCellStyle(sheet, cell("A", r), cell("A", r), styles.bold)
		}
		if e.Amount != nil {
			f.SetCellValue(sheet, cell("B", r), roundCents(*e.Amount))
			f.SetCellStyle(sheet, cell("B", r), cell("B", r), styles.money)
		}
		r++
	}

	if offer.Result.Status == types.StatusComputed {
		r++
		f.SetCellValue(sheet, cell("A", r), TotalLabel+" "+offer.Total())
		f.SetCellStyle(sheet, cell("A", r), cell("A", r), styles.bold)
		f.SetCellValue(sheet, cell("B", r), roundCents(offer.Result.Total))
		f.SetCellStyle(sheet, cell("B", r), cell("B", r), styles.money)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteProjectsWorkbook prices every project and writes one row each, in
// workspace order. The closing row sums the computed active projects.
func WriteProjectsWorkbook(w io.Writer, projects []types.SavedProject, cat *catalog.Catalog) error {
	if cat == nil {
		cat = catalog.Default()
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ProjectsSheet); err != nil {
		return fmt.Errorf("set sheet name: %w", err)
	}
	styles, err := newXLSXStyles(f)
	if err != nil {
		return err
	}
	sheet := ProjectsSheet

	columns := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I"}
	widths := []float64{5, 36, 40, 10, 10, 14, 14, 18, 10}
	for i, c := range columns {
		f.SetColWidth(sheet, c, c, widths[i])
		f.SetCellValue(sheet, cell(c, 1), ProjectsHeaders[i])
	}
	f.SetCellStyle(sheet, "A1", cell(columns[len(columns)-1], 1), styles.header)

	sum := decimal.Zero
	r := 2
	for i, p := range projects {
		result := pricing.Calculate(p.Data, cat)

		typeName := p.Data.ProjectType
		if ct, ok := cat.Lookup(p.Data.ProjectType); ok {
			typeName = ct.Key() + " " + ct.Name
		}

		f.SetCellValue(sheet, cell("A", r), i+1)
		f.SetCellValue(sheet, cell("B", r), sanitizeCell(p.Name))
		f.SetCellValue(sheet, cell("C", r), typeName)
		f.SetCellValue(sheet, cell("D", r), string(result.Status))
		if p.Data.Area > 0 {
			f.SetCellValue(sheet, cell("E", r), p.Data.Area)
		}
		if result.Status == types.StatusComputed {
			eur := decimal.NewFromFloat(result.Total)
			f.SetCellValue(sheet, cell("F", r), eur.Round(2).InexactFloat64())
			f.SetCellValue(sheet, cell("G", r), ToBGN(eur).Round(2).InexactFloat64())
			if !p.IsArchived {
				sum = sum.Add(eur)
			}
		}
		f.SetCellValue(sheet, cell("H", r), time.UnixMilli(p.LastModified).Format("2006-01-02 15:04"))
		if p.IsArchived {
			f.SetCellValue(sheet, cell("I", r), "yes")
		}
		r++
	}
	f.SetCellStyle(sheet, "F2", cell("G", r), styles.money)

	r++
	f.SetCellValue(sheet, cell("E", r), "Total:")
	f.SetCellValue(sheet, cell("F", r), sum.Round(2).InexactFloat64())
	f.SetCellValue(sheet, cell("G", r), ToBGN(sum).Round(2).InexactFloat64())
	f.SetCellStyle(sheet, cell("E", r), cell("G", r), styles.bold)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cell(column string, row int) string {
	return fmt.Sprintf("%s%d", column, row)
}

func roundCents(eur float64) float64 {
	return decimal.NewFromFloat(eur).Round(2).InexactFloat64()
}

// sanitizeCell keeps user text from being read as a formula
func sanitizeCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
