// Package catalog - Built-in price table
// Minimum design prices for the structural part, in EUR.
package catalog

// Categories in display order. Main works come first, the flat-fee
// categories last.
var defaultCategories = []Category{
	{Code: "II", Name: "Residential buildings"},
	{Code: "III", Name: "Public and administrative buildings"},
	{Code: "IV", Name: "Reconstruction and strengthening"},
	{Code: "V", Name: "Industrial buildings and halls"},
	{Code: "VI", Name: "Agricultural and storage buildings"},
	{Code: "VIII", Name: "Retaining walls"},
	{Code: "I", Name: "Consultations and expert opinions"},
	{Code: "VII", Name: "Auxiliary structures"},
}

var defaultTypes = []ConstructionType{
	// II - residential
	{Category: "II", Subindex: "1", Name: "Single-family house up to 150 m²", BasePrice: 600, Strategy: StrategyFixed},
	{Category: "II", Subindex: "2", Name: "Residential building 150-1000 m²", BasePrice: 2.50, Strategy: StrategyPerArea, MinArea: Area(150), MaxArea: Area(1000)},
	{Category: "II", Subindex: "3", Name: "Residential building over 1000 m²", BasePrice: 2.00, Strategy: StrategyPerArea, MinArea: Area(1000)},

	// III - public
	{Category: "III", Subindex: "1", Name: "Public building up to 1000 m²", BasePrice: 3.00, Strategy: StrategyPerArea, MaxArea: Area(1000)},
	{Category: "III", Subindex: "2", Name: "Public building over 1000 m²", BasePrice: 2.50, Strategy: StrategyPerArea, MinArea: Area(1000)},

	// IV - existing buildings
	{Category: "IV", Subindex: "1", Name: "Structural assessment of an existing building", BasePrice: 400, Strategy: StrategyFixed},
	{Category: "IV", Subindex: "2", Name: "Strengthening of load-bearing structure", BasePrice: 3.50, Strategy: StrategyPerArea, MinArea: Area(20)},

	// V - halls, crane eligible
	{Category: "V", Subindex: "1", Name: "Steel hall up to 300 m²", BasePrice: 800, Strategy: StrategyFixed, MaxArea: Area(300)},
	{Category: "V", Subindex: "2", Name: "Industrial hall 300-2000 m²", BasePrice: 2.20, Strategy: StrategyPerArea, MinArea: Area(300), MaxArea: Area(2000)},
	{Category: "V", Subindex: "3", Name: "Industrial hall over 2000 m²", BasePrice: 1.80, Strategy: StrategyPerArea, MinArea: Area(2000)},

	// VI - agricultural, crane eligible
	{Category: "VI", Subindex: "1", Name: "Agricultural building up to 500 m²", BasePrice: 1.50, Strategy: StrategyPerArea, MaxArea: Area(500)},
	{Category: "VI", Subindex: "2", Name: "Storage building over 500 m²", BasePrice: 1.20, Strategy: StrategyPerArea, MinArea: Area(500)},

	// VIII - retaining walls, priced per section
	{Category: "VIII", Subindex: "1", Name: "Retaining wall up to 3 m high", BasePrice: 150, Strategy: StrategyRetainingWall},
	{Category: "VIII", Subindex: "2", Name: "Retaining wall over 3 m high", BasePrice: 250, Strategy: StrategyRetainingWall},

	// I - flat fees
	{Category: "I", Subindex: "1", Name: "Consultation or expert opinion", BasePrice: 150, Strategy: StrategyFixed},
	{Category: "I", Subindex: "2", Name: "Verification of a minor alteration", BasePrice: 250, Strategy: StrategyFixed},

	// VII - flat fees
	{Category: "VII", Subindex: "1", Name: "Fence or gate", BasePrice: 200, Strategy: StrategyFixed},
	{Category: "VII", Subindex: "2", Name: "Canopy or shelter", BasePrice: 250, Strategy: StrategyFixed},
	{Category: "VII", Subindex: "3", Name: "Swimming pool", BasePrice: 400, Strategy: StrategyFixed},
}

var defaultCatalog = MustNew(defaultCategories, defaultTypes)

// Default returns the built-in price table
func Default() *Catalog {
	return defaultCatalog
}
