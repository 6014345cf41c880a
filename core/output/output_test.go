package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"structcalc/core/pricing"
	"structcalc/core/types"
)

var fixedNow = time.Date(2026, 3, 7, 9, 5, 0, 0, time.UTC)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name     string
		eur      float64
		currency types.CurrencyDisplay
		want     string
	}{
		{"eur", 12.5, types.CurrencyEUR, "12.50 €"},
		{"bgn", 12.5, types.CurrencyBGN, "24.45 лв."},
		{"both", 12.5, types.CurrencyBoth, "24.45 лв. (12.50 €)"},
		{"empty means eur", 100, "", "100.00 €"},
		{"unknown means eur", 100, "usd", "100.00 €"},
		{"zero", 0, types.CurrencyBoth, "0.00 лв. (0.00 €)"},
		{"rounds at display", 189.745, types.CurrencyEUR, "189.75 €"},
		{"bgn of 600", 600, types.CurrencyBGN, "1173.50 лв."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(tt.eur, tt.currency))
		})
	}
}

func TestRenderEntryConvertsEveryAmount(t *testing.T) {
	e := types.Line(
		types.Text("+ Crane: 200 m² × "),
		types.Money(1),
		types.Text("/m² = "),
		types.Money(200),
	)

	assert.Equal(t, "+ Crane: 200 m² × 1.00 €/m² = 200.00 €", RenderEntry(e, types.CurrencyEUR))
	assert.Equal(t, "+ Crane: 200 m² × 1.96 лв./m² = 391.17 лв.", RenderEntry(e, types.CurrencyBGN))
	assert.Equal(t,
		"+ Crane: 200 m² × 1.96 лв. (1.00 €)/m² = 391.17 лв. (200.00 €)",
		RenderEntry(e, types.CurrencyBoth))
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name   string
		object string
		ext    string
		want   string
	}{
		{"plain", "Hall", "txt", "2026-03-07_09-05_Hall.txt"},
		{"spaces and slashes", " Hall 2/B ", "json", "2026-03-07_09-05_Hall_2_B.json"},
		{"unsafe chars", `a?b%c*d:e|f"g<h>i\j`, "html", "2026-03-07_09-05_a_b_c_d_e_f_g_h_i_j.html"},
		{"empty", "   ", "txt", "2026-03-07_09-05_project_SK.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.object, tt.ext, fixedNow))
		})
	}

	assert.Equal(t, "2026-03-07_09-05_Workspace.sk_workspace.json", WorkspaceFileName("", fixedNow))
}

func sampleOffer(currency types.CurrencyDisplay) *Offer {
	in := types.DefaultInput().WithProjectType("V.1")
	in.ObjectName = "Hall <North>"
	in.Area = 200
	in.HasCrane = true
	in.IsAccelerated = true
	in.CurrencyDisplay = currency
	return NewOffer(in, pricing.Calculate(in, nil), nil, fixedNow)
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TextFormatter{}.Render(&buf, sampleOffer(types.CurrencyEUR)))

	want := strings.Join([]string{
		OfferTitle,
		"Object: Hall <North>",
		"",
		"Method of calculation:",
		"Industrial buildings and halls",
		"",
		`Base price for "Steel hall up to 300 m²": 800.00 €`,
		"",
		"Additional coefficients:",
		"",
		"+ Crane: 200 m² × 1.00 €/m² = 200.00 €",
		"",
		"+ Accelerated design (50% of 1000.00 €): 500.00 €",
		"",
		"Total = 1500.00 €",
		"",
		"TOTAL (excl. VAT): 1500.00 €",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestTextFormatterUntitled(t *testing.T) {
	in := types.DefaultInput()
	offer := NewOffer(in, pricing.Calculate(in, nil), nil, fixedNow)

	var buf bytes.Buffer
	require.NoError(t, TextFormatter{}.Render(&buf, offer))
	assert.Contains(t, buf.String(), "Object: "+UntitledName)
	assert.Contains(t, buf.String(), pricing.MsgSelectType)
	assert.True(t, strings.HasSuffix(buf.String(), "TOTAL (excl. VAT): 0.00 €"))
}

func TestHTMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewHTMLFormatter().Render(&buf, sampleOffer(types.CurrencyBoth)))
	page := buf.String()

	assert.Contains(t, page, "<title>Offer - Hall &lt;North&gt;</title>")
	assert.NotContains(t, page, "Hall <North>")
	assert.Contains(t, page, "<b>Industrial buildings and halls</b>")
	assert.Contains(t, page, "<b>Additional coefficients:</b>")
	assert.Contains(t, page, "<td><strong>Area:</strong></td><td>200 m²</td>")
	assert.Contains(t, page, "Hall with crane<br>Accelerated design (+50%)")
	assert.Contains(t, page, "2933.75 лв. (1500.00 €)")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONFormatter{}.Render(&buf, sampleOffer(types.CurrencyBGN)))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "V.1", got["projectType"])
	assert.Equal(t, "computed", got["status"])
	assert.Equal(t, 1500.0, got["total"])
	assert.Equal(t, "2933.75 лв.", got["totalFormatted"])
	assert.Len(t, got["lines"], 6)
}

func TestInputRows(t *testing.T) {
	t.Run("retaining wall", func(t *testing.T) {
		in := types.DefaultInput().WithProjectType("VIII.1")
		in.WallSections = 3
		in.AdditionalLength = 12.5
		in = in.WithComplexity(true, 0)
		rows := NewOffer(in, pricing.Calculate(in, nil), nil, fixedNow).InputRows()

		labels := make([]string, len(rows))
		for i, r := range rows {
			labels[i] = r.Label
		}
		assert.Equal(t, []string{"Category", "Project type", "Wall sections", "Additional length", "Coefficients"}, labels)
		assert.Equal(t, []string{"3 pcs"}, rows[2].Values)
		assert.Equal(t, []string{"12.5 m"}, rows[3].Values)
		assert.Equal(t, []string{"Complex geometry or terrain (+at discretion%)"}, rows[4].Values)
	})

	t.Run("crane hidden outside halls", func(t *testing.T) {
		in := types.DefaultInput().WithProjectType("II.1")
		in.HasCrane = true
		in.Area = 100
		rows := NewOffer(in, pricing.Calculate(in, nil), nil, fixedNow).InputRows()
		assert.Len(t, rows, 2)
	})

	t.Run("no type", func(t *testing.T) {
		rows := NewOffer(types.DefaultInput(), types.CalculationResult{}, nil, fixedNow).InputRows()
		assert.Empty(t, rows)
	})
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"html", "json", "pdf", "txt", "xlsx"}, r.Formats())

	f, ok := r.GetFormatter(FormatText)
	require.True(t, ok)
	assert.Equal(t, FormatText, f.Format())

	_, ok = r.GetFormatter(FormatCLI)
	assert.False(t, ok)

	assert.Error(t, r.Register(TextFormatter{}))
}

func TestOfferFileName(t *testing.T) {
	offer := sampleOffer(types.CurrencyEUR)
	assert.Equal(t, "2026-03-07_09-05_Hall__North_.html", offer.FileName(FormatHTML))
	assert.Equal(t, "2026-03-07_09-05_Hall__North_.txt", offer.FileName(FormatCLI))
}
