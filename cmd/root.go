// =============================================================================
// CDATA Enricher - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (enricher)
//   ├── enrichCmd  (enricher enrich <file>)
//   ├── processCmd (enricher process)
//   ├── serveCmd   (enricher serve)
//   ├── lookupCmd  (enricher lookup)
//   └── versionCmd (enricher version)
//
// The root command loads the configuration and builds the logger before
// any subcommand runs.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/ginjaninja78/cdata-enricher/internal/config"
	"github.com/ginjaninja78/cdata-enricher/internal/converter"
	"github.com/ginjaninja78/cdata-enricher/internal/lookup"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// lookupPath overrides lookup.path from the configuration.
var lookupPath string

// appConfig is loaded in PersistentPreRunE.
var appConfig *config.MainConfig

// logger is built in PersistentPreRunE.
var logger = zap.NewNop()

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "enricher",
	Short: "CDATA Enricher - add GTIN/NTIN identifiers to embedded product documents",
	Long: `CDATA Enricher takes documents whose real payload is an XML document wrapped
in a CDATA section, adds <gtin> and <ntin> to every product found in the
product reference table, and writes the document back with the envelope
untouched.

Example Usage:
  enricher enrich order.xml --lookup products.xlsx  # Enrich one document
  enricher process                                  # Enrich everything in input_dir
  enricher process --watch                          # Keep enriching new arrivals
  enricher serve                                    # Run the HTTP endpoint`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadMainConfig(cfgFile, !cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		if lookupPath != "" {
			cfg.Lookup.Path = lookupPath
		}
		appConfig = cfg

		logger, err = newLogger(cfg.LogLevel, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// init sets up the global flags.
func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVar(
		&lookupPath,
		"lookup",
		"",
		"Path to the product lookup table (XLSX or CSV); overrides lookup.path",
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// loadLookup reads the lookup table named in the configuration together
// with the row warnings found in it.
func loadLookup(cfg *config.MainConfig) (*lookup.Table, []lookup.Row, []lookup.Warning, error) {
	if cfg.Lookup.Path == "" {
		return nil, nil, nil, fmt.Errorf("no lookup table configured: set lookup.path or pass --lookup")
	}

	table, rows, err := lookup.Load(cfg.Lookup.Path, cfg.LookupColumns(), cfg.Lookup.Encoding)
	if err != nil {
		return nil, nil, nil, err
	}
	return table, rows, lookup.Validate(rows), nil
}

// loadTable loads the lookup table and logs any row warnings.
func loadTable(cfg *config.MainConfig) (*lookup.Table, error) {
	table, rows, warnings, err := loadLookup(cfg)
	if err != nil {
		return nil, err
	}

	for _, w := range warnings {
		logger.Warn("Lookup row", zap.String("warning", w.String()))
	}
	logger.Info("Lookup table loaded",
		zap.String("path", table.Source()),
		zap.Int("rows", len(rows)),
		zap.Int("products", table.Len()))

	return table, nil
}

// transformOptions builds the transform options from the configuration.
func transformOptions(cfg *config.MainConfig) converter.Options {
	opts := converter.DefaultOptions()
	opts.Binding = cfg.Binding()
	return opts
}
