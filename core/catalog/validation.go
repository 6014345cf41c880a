// Package catalog - Catalog validation
// Ensures price table integrity and enforces invariants.
package catalog

import (
	"fmt"
	"strings"
)

// ValidationRule is a catalog validation rule
type ValidationRule func(*Catalog, ConstructionType) error

// DefaultValidationRules returns the standard validation rules
func DefaultValidationRules() []ValidationRule {
	return []ValidationRule{
		validateCategoryExists,
		validateKeyParts,
		validateStrategy,
		validateBasePrice,
		validateBounds,
	}
}

// ValidationError collects every rule violation of a catalog
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("catalog has %d validation errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Validate checks every entry against the rules
func (c *Catalog) Validate(rules []ValidationRule) []error {
	var errors []error

	for _, entry := range c.types {
		for _, rule := range rules {
			if err := rule(c, entry); err != nil {
				errors = append(errors, fmt.Errorf("%s: %w", entry.Key(), err))
			}
		}
	}

	return errors
}

// validateCategoryExists ensures the key prefix names a declared category
func validateCategoryExists(c *Catalog, e ConstructionType) error {
	if _, ok := c.byCode[e.Category]; !ok {
		return fmt.Errorf("category %q is not declared", e.Category)
	}
	return nil
}

// validateKeyParts rejects keys that would not round-trip through "<cat>.<sub>"
func validateKeyParts(_ *Catalog, e ConstructionType) error {
	if e.Category == "" || e.Subindex == "" {
		return fmt.Errorf("category and subindex are required")
	}
	if strings.Contains(e.Category, ".") {
		return fmt.Errorf("category code must not contain '.'")
	}
	return nil
}

func validateStrategy(_ *Catalog, e ConstructionType) error {
	if !e.Strategy.Valid() {
		return fmt.Errorf("unknown strategy %d", e.Strategy)
	}
	return nil
}

func validateBasePrice(_ *Catalog, e ConstructionType) error {
	if e.BasePrice < 0 {
		return fmt.Errorf("base price must not be negative")
	}
	return nil
}

// validateBounds ensures declared bounds are ordered and only used where
// an area can be entered
func validateBounds(c *Catalog, e ConstructionType) error {
	if !e.HasBounds() {
		return nil
	}
	if e.MinArea != nil && *e.MinArea < 0 {
		return fmt.Errorf("minimum area must not be negative")
	}
	if e.MinArea != nil && e.MaxArea != nil && *e.MinArea > *e.MaxArea {
		return fmt.Errorf("minimum area %g exceeds maximum area %g", *e.MinArea, *e.MaxArea)
	}
	cat, _ := c.Category(e.Category)
	if e.Strategy != StrategyPerArea && !cat.CraneEligible() {
		return fmt.Errorf("area bounds on a %s type can never be checked", e.Strategy)
	}
	return nil
}

// MustNew builds a catalog and panics if it does not validate. Intended
// for package-level tables.
func MustNew(categories []Category, entries []ConstructionType) *Catalog {
	c, err := New(categories, entries)
	if err != nil {
		panic(err.Error())
	}
	return c
}
