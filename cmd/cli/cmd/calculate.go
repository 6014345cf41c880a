// Package cmd - calculate command
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"structcalc/core/output"
	"structcalc/core/pricing"
	"structcalc/core/types"
	"structcalc/core/workspace"
	"structcalc/internal/logging"
	"structcalc/internal/validate"
)

type calculateOptions struct {
	from        string
	projectType string
	area        float64
	sections    int
	length      float64
	objectName  string
	currency    string
	crane       bool
	complexity  float64
	accelerated bool
	supervision bool
	format      string
	outputPath  string
	save        bool
	saveAsNew   bool
	saveID      string
}

// newCalculateCmd represents the calculate command
func newCalculateCmd(a *app) *cobra.Command {
	opts := &calculateOptions{}

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate the design price of a project",
		Long: `Calculate the minimum design price for one project.

The input comes from flags, from a project file (--from), or both: flags
that are set override the values read from the file.

Examples:
  structcalc calculate --type II.1
  structcalc calculate --type V.2 --area 850 --crane --complexity 20
  structcalc calculate --type VIII.1 --sections 3 --length 25
  structcalc calculate --from project.json --format txt --output offer.txt
  structcalc calculate --type II.1 --name "House Petrov" --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCalculate(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.from, "from", "", "read the input from a project file")
	f.StringVarP(&opts.projectType, "type", "t", "", "construction type key, e.g. V.2")
	f.Float64VarP(&opts.area, "area", "a", 0, "built-up area in m²")
	f.IntVar(&opts.sections, "sections", 1, "number of retaining-wall sections")
	f.Float64Var(&opts.length, "length", 0, "additional retaining-wall length in m")
	f.StringVarP(&opts.objectName, "name", "n", "", "object name printed on the offer")
	f.StringVarP(&opts.currency, "currency", "c", "", "currency display (eur, bgn, both)")
	f.BoolVar(&opts.crane, "crane", false, "hall with crane")
	f.Float64Var(&opts.complexity, "complexity", 0, "complexity surcharge in percent")
	f.BoolVar(&opts.accelerated, "accelerated", false, "accelerated design")
	f.BoolVar(&opts.supervision, "supervision", false, "include author's supervision")
	f.StringVarP(&opts.format, "format", "f", string(output.FormatCLI), "output format (cli, json, txt, html, pdf, xlsx)")
	f.StringVarP(&opts.outputPath, "output", "o", "", "write the offer to a file; '.' names it after the object")
	f.BoolVar(&opts.save, "save", false, "save the input to the workspace")
	f.BoolVar(&opts.saveAsNew, "as-new", false, "with --save and --id, save a copy instead of updating")
	f.StringVar(&opts.saveID, "id", "", "with --save, update this project")

	return cmd
}

func (a *app) runCalculate(cmd *cobra.Command, opts *calculateOptions) error {
	in, err := a.buildInput(cmd, opts)
	if err != nil {
		return err
	}
	if err := validate.Struct(in); err != nil {
		return err
	}

	cat, err := a.catalog()
	if err != nil {
		return err
	}

	logging.Debug("calculating",
		zap.String("type", in.ProjectType),
		zap.Float64("area", in.Area))

	result := pricing.Calculate(in, cat)
	offer := output.NewOffer(in, result, cat, time.Now())

	if err := a.writeOffer(cmd, offer, output.Format(opts.format), opts.outputPath); err != nil {
		return err
	}

	if opts.save {
		ws, store, err := a.openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		saved, err := ws.Save(cmd.Context(), in, opts.saveID, opts.saveAsNew)
		if err != nil {
			return err
		}
		a.writer(cmd.ErrOrStderr()).Success("Saved %q as %s", saved.Name, saved.ID)
	}
	return nil
}

// buildInput starts from the defaults or a project file and applies the
// flags the user set
func (a *app) buildInput(cmd *cobra.Command, opts *calculateOptions) (types.PricingInput, error) {
	in := types.DefaultInput()
	in.CurrencyDisplay = a.cfg.Pricing.DefaultCurrency

	if opts.from != "" {
		data, err := os.ReadFile(opts.from)
		if err != nil {
			return types.PricingInput{}, fmt.Errorf("reading %s: %w", opts.from, err)
		}
		project, err := workspace.Sanitizer{Now: time.Now, NewID: uuid.NewString}.DecodeProject(data)
		if err != nil {
			return types.PricingInput{}, err
		}
		in = project.Data
	}

	f := cmd.Flags()
	if f.Changed("type") {
		in = in.WithProjectType(opts.projectType)
	}
	if f.Changed("area") {
		in.Area = opts.area
	}
	if f.Changed("sections") {
		in.WallSections = opts.sections
	}
	if f.Changed("length") {
		in.AdditionalLength = opts.length
	}
	if f.Changed("name") {
		in.ObjectName = opts.objectName
	}
	if f.Changed("currency") {
		in.CurrencyDisplay = types.CurrencyDisplay(opts.currency)
	}
	if f.Changed("crane") {
		in.HasCrane = opts.crane
	}
	if f.Changed("complexity") {
		in = in.WithComplexity(opts.complexity > 0, opts.complexity)
	}
	if f.Changed("accelerated") {
		in.IsAccelerated = opts.accelerated
	}
	if f.Changed("supervision") {
		in.IncludeSupervision = opts.supervision
	}
	return in, nil
}

// writeOffer renders offer to stdout or, with a path, to a file. A path
// of "." uses the offer's own file name in the working directory.
func (a *app) writeOffer(cmd *cobra.Command, offer *output.Offer, format output.Format, path string) error {
	formatter, ok := a.formatters().GetFormatter(format)
	if !ok {
		return fmt.Errorf("unsupported format %q (supported: %v)", format, a.formatters().Formats())
	}

	if path == "" {
		return formatter.Render(cmd.OutOrStdout(), offer)
	}
	if path == "." {
		path = offer.FileName(format)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := formatter.Render(file, offer); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	a.writer(cmd.ErrOrStderr()).Success("Offer written to %s", path)
	return nil
}

// writeJSON prints v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
