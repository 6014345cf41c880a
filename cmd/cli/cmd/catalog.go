// Package cmd - catalog command
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"structcalc/adapters/pricetable"
	"structcalc/core/types"
)

// newCatalogCmd lists the price table
func newCatalogCmd(a *app) *cobra.Command {
	var (
		format   string
		currency string
		export   string
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the construction types and their prices",
		Long: `List every category and construction type of the active price table.

The table is the built-in one unless pricing.catalog_path (or
STRUCTCALC_CATALOG) points at an HCL price table. --export-hcl writes the
active table in that format, as a starting point for a custom one.

Examples:
  structcalc catalog
  structcalc catalog --currency both
  structcalc catalog --format json
  structcalc catalog --export-hcl prices.hcl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.catalog()
			if err != nil {
				return err
			}

			if export != "" {
				if err := os.WriteFile(export, pricetable.Encode(cat), 0644); err != nil {
					return fmt.Errorf("writing %s: %w", export, err)
				}
				a.writer(cmd.ErrOrStderr()).Success("Price table written to %s", export)
				return nil
			}

			display := a.cfg.Pricing.DefaultCurrency
			if currency != "" {
				display = types.CurrencyDisplay(currency)
				if !display.Valid() {
					return fmt.Errorf("unknown currency %q (eur, bgn, both)", currency)
				}
			}

			switch format {
			case "cli":
				a.writer(cmd.OutOrStdout()).RenderCatalog(cat, display)
				return nil
			case "json":
				return writeJSON(cmd.OutOrStdout(), cat.Groups())
			case "hcl":
				_, err := cmd.OutOrStdout().Write(pricetable.Encode(cat))
				return err
			default:
				return fmt.Errorf("unsupported format %q (cli, json, hcl)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "cli", "output format (cli, json, hcl)")
	cmd.Flags().StringVarP(&currency, "currency", "c", "", "currency display (eur, bgn, both)")
	cmd.Flags().StringVar(&export, "export-hcl", "", "write the price table to an HCL file")

	return cmd
}
