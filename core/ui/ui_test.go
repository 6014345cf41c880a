package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"structcalc/core/catalog"
	"structcalc/core/output"
	"structcalc/core/pricing"
	"structcalc/core/types"
)

func TestTableAlignsMultibyteCells(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	table := w.NewTable("Key", "Area")
	table.AddRow("II.2", "150-1000 m²")
	table.AddRow("V.1", "≤ 300 m²")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Key  │ Area", lines[0])
	assert.Equal(t, "─────┼────────────", lines[1])
	assert.Equal(t, "II.2 │ 150-1000 m²", lines[2])
	assert.Equal(t, "V.1  │ ≤ 300 m²", lines[3])
}

func TestCLIFormatterComputed(t *testing.T) {
	in := types.DefaultInput().WithProjectType("II.1")
	in.ObjectName = "House"
	in.IsAccelerated = true
	offer := output.NewOffer(in, pricing.Calculate(in, nil), nil, time.Now())

	var buf bytes.Buffer
	require.NoError(t, CLIFormatter{NoColor: true}.Render(&buf, offer))
	out := buf.String()

	assert.Contains(t, out, "━━━ House ━━━")
	assert.Contains(t, out, "Project type: Single-family house up to 150 m²")
	assert.Contains(t, out, "+ Accelerated design (50% of 600.00 €): 300.00 €")
	assert.Contains(t, out, "│  TOTAL (excl. VAT): 900.00 €  │")
	assert.NotContains(t, out, "\033[")
}

func TestCLIFormatterPendingHasNoTotal(t *testing.T) {
	in := types.DefaultInput().WithProjectType("II.2")
	offer := output.NewOffer(in, pricing.Calculate(in, nil), nil, time.Now())

	var buf bytes.Buffer
	require.NoError(t, CLIFormatter{NoColor: true}.Render(&buf, offer))
	assert.Contains(t, buf.String(), pricing.MsgEnterArea)
	assert.NotContains(t, buf.String(), output.TotalLabel)
}

func TestRenderCatalog(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, true).RenderCatalog(catalog.Default(), types.CurrencyEUR)
	out := buf.String()

	assert.Less(t, strings.Index(out, "▸ II. "), strings.Index(out, "▸ I. "))
	assert.Contains(t, out, "2.50 €/m²")
	assert.Contains(t, out, "150.00 €/section")
	assert.Contains(t, out, "150-1000 m²")
}

func TestRenderProjects(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	w.RenderProjects(nil)
	assert.Contains(t, buf.String(), "No saved projects")

	buf.Reset()
	w.RenderProjects([]types.SavedProject{
		{ID: "a", Name: "First", Data: types.DefaultInput().WithProjectType("II.1")},
		{ID: "b", Name: "Second", IsArchived: true},
	})
	out := buf.String()
	assert.Contains(t, out, "First")
	assert.Contains(t, out, "archived")
	assert.Less(t, strings.Index(out, "First"), strings.Index(out, "Second"))
}

func TestVerbosity(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	w.Debug("hidden")
	assert.Empty(t, buf.String())

	w.SetVerbosity(2)
	w.Debug("shown %d", 1)
	assert.Contains(t, buf.String(), "shown 1")

	buf.Reset()
	w.SetVerbosity(0)
	w.Info("quiet")
	assert.Empty(t, buf.String())
}
