// Package cmd provides the CLI commands for structcalc.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"structcalc/adapters/pricetable"
	"structcalc/adapters/storage"
	"structcalc/core/catalog"
	"structcalc/core/output"
	"structcalc/core/ui"
	"structcalc/core/workspace"
	"structcalc/internal/config"
	"structcalc/internal/logging"
)

// Version is the CLI version, set at build time
var Version = "0.1.0"

// app carries the global flags and the loaded configuration
type app struct {
	cfgFile string
	verbose bool
	noColor bool
	cfg     *config.Config
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "structcalc",
		Short: "Price the structural design of a building",
		Long: `structcalc computes the minimum design price for the structural part of
a building project and keeps a workspace of saved projects.

Examples:
  structcalc calculate --type II.1
  structcalc calculate --type V.2 --area 850 --crane --accelerated
  structcalc calculate --from project.json --format html > offer.html
  structcalc workspace list`,
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
		PersistentPostRun: func(*cobra.Command, []string) { logging.Sync() },
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.structcalc.json)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newCalculateCmd(a))
	rootCmd.AddCommand(newCatalogCmd(a))
	rootCmd.AddCommand(newWorkspaceCmd(a))
	rootCmd.AddCommand(newOfferCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) initConfig(cmd *cobra.Command, args []string) error {
	path := a.cfgFile
	if path == "" {
		path = defaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.ApplyEnv()
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	config.Set(cfg)
	a.cfg = cfg

	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	return nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".structcalc.json"
	}
	return filepath.Join(home, ".structcalc.json")
}

// catalog returns the configured price table
func (a *app) catalog() (*catalog.Catalog, error) {
	if a.cfg.Pricing.CatalogPath == "" {
		return catalog.Default(), nil
	}
	return pricetable.LoadFile(a.cfg.Pricing.CatalogPath)
}

// openWorkspace opens the configured store. Callers close the store.
func (a *app) openWorkspace(ctx context.Context) (*workspace.Workspace, storage.Store, error) {
	ws := a.cfg.Workspace
	store, err := storage.StoreFactory(storage.Backend(ws.Backend), map[string]string{
		"path": ws.Path,
		"addr": ws.RedisAddr,
		"db":   strconv.Itoa(ws.RedisDB),
		"key":  ws.RedisKey,
	})
	if err != nil {
		return nil, nil, err
	}

	w, err := workspace.Open(ctx, store, workspace.WithLogger(logging.Named("workspace")))
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return w, store, nil
}

// writer returns a terminal writer on the command's output
func (a *app) writer(out io.Writer) *ui.Writer {
	w := ui.NewWriter(out, a.noColor)
	if a.verbose {
		w.SetVerbosity(2)
	}
	return w
}

// formatters returns every offer format, the terminal one included
func (a *app) formatters() *output.Registry {
	r := output.DefaultRegistry()
	// cannot collide: the default registry has no cli formatter
	_ = r.Register(ui.CLIFormatter{NoColor: a.noColor})
	return r
}

// newVersionCmd prints version information
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "structcalc version %s\n", Version)
		},
	}
}

// newConfigCmd manages configuration
func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), a.cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write the effective configuration to a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath()
			if a.cfgFile != "" {
				path = a.cfgFile
			}
			if len(args) > 0 {
				path = args[0]
			}
			if err := a.cfg.Save(path); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			a.writer(cmd.OutOrStdout()).Success("Configuration written to %s", path)
			return nil
		},
	})

	return configCmd
}
