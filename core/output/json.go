package output

import (
	"encoding/json"
	"io"
	"time"

	"structcalc/core/types"
)

// JSONFormatter writes a machine-readable offer
type JSONFormatter struct {
	Indent bool
}

// Format returns FormatJSON
func (JSONFormatter) Format() Format { return FormatJSON }

type jsonOffer struct {
	ObjectName     string                `json:"objectName"`
	ProjectType    string                `json:"projectType"`
	Status         types.Status          `json:"status"`
	IsError        bool                  `json:"isError"`
	Total          float64               `json:"total"`
	TotalFormatted string                `json:"totalFormatted"`
	Currency       types.CurrencyDisplay `json:"currency"`
	Lines          []string              `json:"lines"`
	Log            []types.LogEntry      `json:"log"`
	Input          types.PricingInput    `json:"input"`
	GeneratedAt    time.Time             `json:"generatedAt"`
}

// Render encodes the offer with both raw and formatted amounts
func (f JSONFormatter) Render(w io.Writer, offer *Offer) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(jsonOffer{
		ObjectName:     offer.ObjectName(),
		ProjectType:    offer.Input.ProjectType,
		Status:         offer.Result.Status,
		IsError:        offer.Result.IsError,
		Total:          offer.Result.Total,
		TotalFormatted: offer.Total(),
		Currency:       offer.Currency(),
		Lines:          offer.Lines(),
		Log:            offer.Result.Log,
		Input:          offer.Input,
		GeneratedAt:    offer.GeneratedAt,
	})
}
