// Package pricetable loads and writes price tables in HCL.
//
// A table lists categories in display order, each with its construction
// types:
//
//	category "V" {
//	  name = "Industrial buildings and halls"
//
//	  type "1" {
//	    name       = "Steel hall up to 300 m²"
//	    base_price = 800
//	    strategy   = "fixed"
//	    max_area   = 300
//	  }
//	}
package pricetable

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"structcalc/core/catalog"
	apperrors "structcalc/internal/errors"
	"structcalc/internal/logging"
)

type tableFile struct {
	Categories []categoryBlock `hcl:"category,block"`
}

type categoryBlock struct {
	Code  string      `hcl:"code,label"`
	Name  string      `hcl:"name"`
	Types []typeBlock `hcl:"type,block"`
}

type typeBlock struct {
	Subindex  string   `hcl:"subindex,label"`
	Name      string   `hcl:"name"`
	BasePrice float64  `hcl:"base_price"`
	Strategy  string   `hcl:"strategy,optional"`
	MinArea   *float64 `hcl:"min_area,optional"`
	MaxArea   *float64 `hcl:"max_area,optional"`
}

// LoadFile reads and validates a price table file
func LoadFile(path string) (*catalog.Catalog, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.TypeCatalog, "failed to read price table", err).
			WithContext("path", path)
	}
	cat, err := Parse(src, path)
	if err != nil {
		return nil, err
	}
	logging.Named("pricetable").Sugar().Debugf("loaded %d construction types from %s", cat.Len(), path)
	return cat, nil
}

// Parse decodes an HCL price table. filename is only used in diagnostics.
func Parse(src []byte, filename string) (*catalog.Catalog, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, apperrors.Parsing("invalid price table syntax", diagError(diags))
	}

	var table tableFile
	if diags := gohcl.DecodeBody(file.Body, nil, &table); diags.HasErrors() {
		return nil, apperrors.Parsing("invalid price table structure", diagError(diags))
	}

	categories := make([]catalog.Category, 0, len(table.Categories))
	var entries []catalog.ConstructionType
	for _, cb := range table.Categories {
		categories = append(categories, catalog.Category{Code: cb.Code, Name: cb.Name})
		for _, tb := range cb.Types {
			strategy := catalog.StrategyFixed
			if tb.Strategy != "" {
				s, err := catalog.ParseStrategy(tb.Strategy)
				if err != nil {
					return nil, apperrors.Wrap(apperrors.TypeCatalog, "invalid price table entry", err).
						WithContext("key", cb.Code+"."+tb.Subindex)
				}
				strategy = s
			}
			entries = append(entries, catalog.ConstructionType{
				Category:  cb.Code,
				Subindex:  tb.Subindex,
				Name:      tb.Name,
				BasePrice: tb.BasePrice,
				Strategy:  strategy,
				MinArea:   tb.MinArea,
				MaxArea:   tb.MaxArea,
			})
		}
	}

	cat, err := catalog.New(categories, entries)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.TypeCatalog, "price table failed validation", err).
			WithContext("file", filename)
	}
	return cat, nil
}

// Encode writes a catalog in the format Parse reads
func Encode(cat *catalog.Catalog) []byte {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	byCategory := make(map[string][]catalog.ConstructionType)
	for _, ct := range cat.Types() {
		byCategory[ct.Category] = append(byCategory[ct.Category], ct)
	}

	// every declared category, including ones without types
	for i, category := range cat.Categories() {
		if i > 0 {
			root.AppendNewline()
		}
		block := root.AppendNewBlock("category", []string{category.Code})
		body := block.Body()
		body.SetAttributeValue("name", cty.StringVal(category.Name))

		for _, ct := range byCategory[category.Code] {
			body.AppendNewline()
			tb := body.AppendNewBlock("type", []string{ct.Subindex}).Body()
			tb.SetAttributeValue("name", cty.StringVal(ct.Name))
			tb.SetAttributeValue("base_price", cty.NumberFloatVal(ct.BasePrice))
			tb.SetAttributeValue("strategy", cty.StringVal(ct.Strategy.String()))
			if ct.MinArea != nil {
				tb.SetAttributeValue("min_area", cty.NumberFloatVal(*ct.MinArea))
			}
			if ct.MaxArea != nil {
				tb.SetAttributeValue("max_area", cty.NumberFloatVal(*ct.MaxArea))
			}
		}
	}

	return hclwrite.Format(f.Bytes())
}

// diagError flattens error diagnostics into one error with positions
func diagError(diags hcl.Diagnostics) error {
	var buf bytes.Buffer
	for _, diag := range diags {
		if diag.Severity != hcl.DiagError {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("; ")
		}
		if diag.Subject != nil {
			fmt.Fprintf(&buf, "%s:%d: ", diag.Subject.Filename, diag.Subject.Start.Line)
		}
		buf.WriteString(diag.Summary)
		if diag.Detail != "" {
			buf.WriteString(": " + diag.Detail)
		}
	}
	return errors.New(buf.String())
}
