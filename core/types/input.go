// Package types - Calculation input
package types

// PricingInput is one calculation request. The JSON shape is the project
// file format, so field names must stay stable.
type PricingInput struct {
	// ProjectType selects a construction type by catalog key ("V.1")
	ProjectType string `json:"projectType"`

	// Area in m², used by per-area types and the crane surcharge
	Area float64 `json:"area" validate:"gte=0"`

	// WallSections is the number of retaining-wall sections
	WallSections int `json:"wallSections" validate:"gte=0"`

	// AdditionalLength of a retaining wall in metres
	AdditionalLength float64 `json:"additionalLength" validate:"gte=0"`

	// ObjectName is the title printed on offers
	ObjectName string `json:"objectName"`

	// CurrencyDisplay affects formatting only
	CurrencyDisplay CurrencyDisplay `json:"currencyDisplay" validate:"omitempty,oneof=eur bgn both"`

	HasCrane             bool    `json:"hasCrane"`
	HasComplexity        bool    `json:"hasComplexity"`
	ComplexityPercentage float64 `json:"complexityPercentage" validate:"gte=0,lte=100"`
	IsAccelerated        bool    `json:"isAccelerated"`
	IncludeSupervision   bool    `json:"includeSupervision"`
}

// DefaultInput returns the state of an empty form
func DefaultInput() PricingInput {
	return PricingInput{
		WallSections:    1,
		CurrencyDisplay: CurrencyEUR,
	}
}

// WithProjectType switches the construction type and resets the
// dimensions that belong to the previous type.
func (in PricingInput) WithProjectType(key string) PricingInput {
	in.ProjectType = key
	in.Area = 0
	in.WallSections = 1
	in.AdditionalLength = 0
	return in
}

// WithComplexity toggles the complexity surcharge. Turning it off clears
// the percentage.
func (in PricingInput) WithComplexity(enabled bool, percentage float64) PricingInput {
	in.HasComplexity = enabled
	if enabled {
		in.ComplexityPercentage = percentage
	} else {
		in.ComplexityPercentage = 0
	}
	return in
}
