// Package pricing computes design prices from the price table.
//
// Calculate is a pure function of its input and the catalog: it keeps no
// state, never fails and is safe to call concurrently. Amounts are kept at
// full float64 precision; rounding belongs to presentation.
package pricing

import (
	"fmt"
	"math"
	"strconv"

	"structcalc/core/catalog"
	"structcalc/core/types"
)

const (
	// CraneRatePerM2 is added per m² when a hall has a crane
	CraneRatePerM2 = 1.0

	// AccelerationPercent is the accelerated-design surcharge
	AccelerationPercent = 50.0

	// SupervisionPercent is the author's supervision surcharge
	SupervisionPercent = 15.0

	// WallLengthStep is the length increment (m) that earns a wall addition
	WallLengthStep = 10.0

	// WallLengthFactor is the share of the section price added per increment
	WallLengthFactor = 0.2
)

// Messages shown instead of a price
const (
	MsgSelectType  = "Please select a project type."
	MsgEnterArea   = "Please enter an area."
	MsgInvalidArea = "INVALID AREA"
)

// Calculate prices one input against the catalog. A nil catalog means the
// built-in table.
func Calculate(in types.PricingInput, cat *catalog.Catalog) types.CalculationResult {
	if cat == nil {
		cat = catalog.Default()
	}

	ct, ok := cat.Lookup(in.ProjectType)
	if !ok {
		return pending(MsgSelectType)
	}

	category, hasCategory := cat.Category(ct.Category)
	craneEligible := category.CraneEligible()
	needsArea := ct.Strategy == catalog.StrategyPerArea || (craneEligible && in.HasCrane)
	area := in.Area

	// A zero area is incomplete input, not a bounds violation.
	if needsArea && area > 0 && !ct.InBounds(area) {
		return types.CalculationResult{
			Total: 0,
			Log: []types.LogEntry{
				types.Header(types.Text(MsgInvalidArea)),
				types.Line(types.Text(boundsMessage(ct))),
			},
			IsError: true,
			Status:  types.StatusError,
		}
	}

	if needsArea && area <= 0 {
		return pending(MsgEnterArea)
	}

	var log []types.LogEntry
	if hasCategory && category.Name != "" {
		log = append(log, types.Header(types.Text(category.Name)))
	}

	base, baseEntry := basePrice(ct, in)
	log = append(log, baseEntry)

	price := base
	var additions []types.LogEntry

	if in.HasCrane && craneEligible {
		addition := area * CraneRatePerM2
		price += addition
		additions = append(additions, types.LineWithAmount(addition,
			types.Textf("+ Crane: %s m² × ", num(area)),
			types.Money(CraneRatePerM2),
			types.Text("/m² = "),
			types.Money(addition),
		))
	}

	if !category.FlatFee() {
		if in.HasComplexity && in.ComplexityPercentage > 0 {
			var entry types.LogEntry
			price, entry = surcharge(price, in.ComplexityPercentage, "Complexity")
			additions = append(additions, entry)
		}
		if in.IsAccelerated {
			var entry types.LogEntry
			price, entry = surcharge(price, AccelerationPercent, "Accelerated design")
			additions = append(additions, entry)
		}
		if in.IncludeSupervision {
			var entry types.LogEntry
			price, entry = surcharge(price, SupervisionPercent, "Author's supervision")
			additions = append(additions, entry)
		}
	}

	if len(additions) > 0 {
		log = append(log, types.Header(types.Text("Additional coefficients:")))
		log = append(log, additions...)
	}

	if price != base && price > 0 {
		log = append(log, types.Total(price))
	}

	return types.CalculationResult{
		Total:   price,
		Log:     log,
		IsError: false,
		Status:  types.StatusComputed,
	}
}

// basePrice dispatches on the pricing strategy
func basePrice(ct catalog.ConstructionType, in types.PricingInput) (float64, types.LogEntry) {
	switch ct.Strategy {
	case catalog.StrategyFixed:
		base := ct.BasePrice
		return base, types.LineWithAmount(base,
			types.Textf("Base price for %q: ", ct.Name),
			types.Money(base),
		)

	case catalog.StrategyPerArea:
		base := ct.BasePrice * in.Area
		return base, types.LineWithAmount(base,
			types.Textf("Price by area for %q: %s m² × ", ct.Name, num(in.Area)),
			types.Money(ct.BasePrice),
			types.Text("/m² = "),
			types.Money(base),
		)

	case catalog.StrategyRetainingWall:
		sections := float64(in.WallSections)
		base := ct.BasePrice * sections
		fragments := []types.Fragment{
			types.Textf("Price for sections: %d pcs × ", in.WallSections),
			types.Money(ct.BasePrice),
			types.Text("/pc = "),
			types.Money(base),
		}
		if in.AdditionalLength > 0 {
			// Increments shorter than one full step earn nothing.
			multiplier := math.Floor(in.AdditionalLength / WallLengthStep)
			if multiplier > 0 {
				addition := ct.BasePrice * sections * WallLengthFactor * multiplier
				base += addition
				fragments = append(fragments,
					types.Break(),
					types.Textf("+ Additional length (%s m): ", num(in.AdditionalLength)),
					types.Money(addition),
				)
			}
		}
		return base, types.LineWithAmount(base, fragments...)
	}

	panic(fmt.Sprintf("pricing: unhandled strategy %s for %s", ct.Strategy, ct.Key()))
}

// surcharge adds percent of price to price. It applies to the running
// price, so surcharges compound in the order they are applied.
func surcharge(price, percent float64, label string) (float64, types.LogEntry) {
	addition := price * (percent / 100)
	entry := types.LineWithAmount(addition,
		types.Textf("+ %s (%s%% of ", label, num(percent)),
		types.Money(price),
		types.Text("): "),
		types.Money(addition),
	)
	return price + addition, entry
}

func pending(msg string) types.CalculationResult {
	return types.CalculationResult{
		Total:   0,
		Log:     []types.LogEntry{types.Line(types.Text(msg))},
		IsError: false,
		Status:  types.StatusPending,
	}
}

func boundsMessage(ct catalog.ConstructionType) string {
	switch {
	case ct.MinArea != nil && ct.MaxArea != nil:
		return fmt.Sprintf("The area must be between %s and %s m² for the selected type.", num(*ct.MinArea), num(*ct.MaxArea))
	case ct.MinArea != nil:
		return fmt.Sprintf("The area must be at least %s m² for the selected type.", num(*ct.MinArea))
	default:
		return fmt.Sprintf("The area must not exceed %s m² for the selected type.", num(*ct.MaxArea))
	}
}

// num prints a number the way it was entered: no trailing zeros
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
