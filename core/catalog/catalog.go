// Package catalog - Authoritative price table
// Defines the construction types that can be priced, grouped into
// categories. This is the source of truth for the calculator.
package catalog

import (
	"fmt"
	"strings"
)

// Strategy selects how a base price combines with dimensional input
type Strategy int

const (
	// StrategyFixed - base price is the price
	StrategyFixed Strategy = iota
	// StrategyPerArea - base price per m²
	StrategyPerArea
	// StrategyRetainingWall - base price per wall section, plus length increments
	StrategyRetainingWall
)

// String returns string representation
func (s Strategy) String() string {
	switch s {
	case StrategyFixed:
		return "fixed"
	case StrategyPerArea:
		return "per_m2"
	case StrategyRetainingWall:
		return "retaining_wall"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the declared strategies
func (s Strategy) Valid() bool {
	return s >= StrategyFixed && s <= StrategyRetainingWall
}

// ParseStrategy converts the table spelling back to a Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed":
		return StrategyFixed, nil
	case "per_m2", "per_area":
		return StrategyPerArea, nil
	case "retaining_wall":
		return StrategyRetainingWall, nil
	default:
		return 0, fmt.Errorf("unknown pricing strategy %q", s)
	}
}

// MarshalText encodes the table spelling
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown pricing strategy %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Category groups construction types and drives surcharge eligibility
type Category struct {
	// Code is the roman-numeral code, e.g. "V"
	Code string `json:"code"`

	// Name is the display name
	Name string `json:"name"`
}

// CraneEligible reports whether the crane surcharge applies (halls)
func (c Category) CraneEligible() bool {
	return c.Code == "V" || c.Code == "VI"
}

// FlatFee reports whether the category is excluded from percentage surcharges
func (c Category) FlatFee() bool {
	return c.Code == "I" || c.Code == "VII"
}

// ConstructionType is a catalog entry
type ConstructionType struct {
	Category  string   `json:"category"`
	Subindex  string   `json:"subindex"`
	Name      string   `json:"name"`
	BasePrice float64  `json:"basePrice"`
	Strategy  Strategy `json:"strategy"`
	MinArea   *float64 `json:"minArea,omitempty"`
	MaxArea   *float64 `json:"maxArea,omitempty"`
}

// Key returns the lookup key "<category>.<subindex>"
func (t ConstructionType) Key() string {
	return t.Category + "." + t.Subindex
}

// HasBounds reports whether any area bound is declared
func (t ConstructionType) HasBounds() bool {
	return t.MinArea != nil || t.MaxArea != nil
}

// InBounds reports whether area satisfies the declared bounds
func (t ConstructionType) InBounds(area float64) bool {
	if t.MinArea != nil && area < *t.MinArea {
		return false
	}
	if t.MaxArea != nil && area > *t.MaxArea {
		return false
	}
	return true
}

// Group is a category with its types, in table order
type Group struct {
	Category Category           `json:"category"`
	Types    []ConstructionType `json:"types"`
}

// Catalog is an immutable, validated price table
type Catalog struct {
	categories []Category
	byCode     map[string]int
	types      []ConstructionType
	byKey      map[string]int
}

// New builds a catalog. Category order is kept as given and is the
// display order; types keep declaration order within their category.
func New(categories []Category, entries []ConstructionType) (*Catalog, error) {
	c := &Catalog{
		categories: make([]Category, 0, len(categories)),
		byCode:     make(map[string]int, len(categories)),
		types:      make([]ConstructionType, 0, len(entries)),
		byKey:      make(map[string]int, len(entries)),
	}

	for _, cat := range categories {
		if _, dup := c.byCode[cat.Code]; dup {
			return nil, fmt.Errorf("duplicate category %q", cat.Code)
		}
		c.byCode[cat.Code] = len(c.categories)
		c.categories = append(c.categories, cat)
	}

	var errs []error
	for _, entry := range entries {
		if _, dup := c.byKey[entry.Key()]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate key", entry.Key()))
			continue
		}
		c.byKey[entry.Key()] = len(c.types)
		c.types = append(c.types, entry)
	}

	errs = append(errs, c.Validate(DefaultValidationRules())...)
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return c, nil
}

// Lookup returns the construction type for a key. Unknown and empty keys
// report false.
func (c *Catalog) Lookup(key string) (ConstructionType, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return ConstructionType{}, false
	}
	return c.types[i], true
}

// Category returns a category by code
func (c *Catalog) Category(code string) (Category, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return Category{}, false
	}
	return c.categories[i], true
}

// Categories returns all categories in display order
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Types returns all construction types in declaration order
func (c *Catalog) Types() []ConstructionType {
	out := make([]ConstructionType, len(c.types))
	copy(out, c.types)
	return out
}

// Groups returns types grouped by category in display order. Categories
// without types are omitted.
func (c *Catalog) Groups() []Group {
	byCat := make(map[string][]ConstructionType, len(c.categories))
	for _, t := range c.types {
		byCat[t.Category] = append(byCat[t.Category], t)
	}

	groups := make([]Group, 0, len(c.categories))
	for _, cat := range c.categories {
		types := byCat[cat.Code]
		if len(types) == 0 {
			continue
		}
		groups = append(groups, Group{Category: cat, Types: types})
	}
	return groups
}

// Len returns the number of construction types
func (c *Catalog) Len() int {
	return len(c.types)
}

// Area returns a pointer to v for the optional bound fields
func Area(v float64) *float64 {
	return &v
}
