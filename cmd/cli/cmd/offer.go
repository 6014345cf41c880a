// Package cmd - offer command
package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"structcalc/core/output"
	"structcalc/core/pricing"
)

// newOfferCmd prints or saves the offer of a saved project
func newOfferCmd(a *app) *cobra.Command {
	var (
		format     string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "offer <id>",
		Short: "Produce the offer of a saved project",
		Long: `Recalculate a saved project and produce its offer.

Examples:
  structcalc offer 3f2c... --output .
  structcalc offer 3f2c... --format txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, store, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			project, err := ws.Get(args[0])
			if err != nil {
				return err
			}
			cat, err := a.catalog()
			if err != nil {
				return err
			}

			result := pricing.Calculate(project.Data, cat)
			offer := output.NewOffer(project.Data, result, cat, time.Now())
			return a.writeOffer(cmd, offer, output.Format(format), outputPath)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(output.FormatHTML), "output format (cli, json, txt, html, pdf, xlsx)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the offer to a file; '.' names it after the object")

	return cmd
}
