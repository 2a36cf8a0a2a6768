// =============================================================================
// CDATA Enricher - Process Command
// =============================================================================
//
// This file defines the 'process' command, which enriches every document
// waiting in the input directory.
//
// COMMAND USAGE:
//   enricher process [flags]
//
// FLAGS:
//   --dry-run : Transform without writing or archiving anything
//   --file    : Process only this file
//   --watch   : Keep running and process documents as they arrive
//
// PROCESSING PIPELINE:
//   1. Load configuration and the lookup table
//   2. Discover documents in the input directory
//   3. For each document (at most max_concurrency at once):
//      a. Enrich it
//      b. Write the output file
//      c. Archive the input, or leave an error log on failure
//   4. Print a summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/ginjaninja78/cdata-enricher/internal/config"
	"github.com/ginjaninja78/cdata-enricher/internal/converter"
	"github.com/ginjaninja78/cdata-enricher/internal/lookup"
	"github.com/ginjaninja78/cdata-enricher/internal/watcher"
	"github.com/ginjaninja78/cdata-enricher/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun transforms without writing output files.
var dryRun bool

// filePath restricts processing to a single file.
var filePath string

// watch keeps the command running on new arrivals.
var watch bool

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Enrich every document in the input directory",
	Long: `The process command scans the input directory for documents, enriches
each of them and writes the results to the output directory.

Documents are processed concurrently; a failure in one does not affect the
others.

On success:
  - The enriched document is written to the output directory
  - The original is moved to the input archive

On error:
  - An error log is written to the error directory
  - The original remains in the input directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runProcess(ctx, appConfig)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Transform without writing output files",
	)

	processCmd.Flags().StringVar(
		&filePath,
		"file",
		"",
		"Process only this file",
	)

	processCmd.Flags().BoolVar(
		&watch,
		"watch",
		false,
		"Keep running and process documents as they arrive",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(ctx context.Context, cfg *config.MainConfig) error {
	startTime := time.Now()

	table, err := loadTable(cfg)
	if err != nil {
		return err
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	files := newFileManager(cfg)

	var inputFiles []string
	if filePath != "" {
		inputFiles = []string{filePath}
	} else {
		inputFiles, err = files.DiscoverInputFiles(cfg.InputPattern)
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(inputFiles) == 0 && !watch {
		fmt.Println("No documents found in the input directory.")
		return nil
	}

	results := processAll(ctx, cfg, table, files, inputFiles)
	printSummary(results, time.Since(startTime))

	if !watch {
		return nil
	}

	w := watcher.New(cfg.InputDir, cfg.InputPattern, 0, func(ctx context.Context, path string) {
		r := newConverter(cfg, table, files, path).Run(ctx)
		printResult(r)
	}, logger)
	return w.Run(ctx)
}

// processAll enriches the files with at most cfg.MaxConcurrency running at
// once and returns the results in input order.
func processAll(ctx context.Context, cfg *config.MainConfig, table *lookup.Table, files *utils.FileManager, paths []string) []converter.Result {
	results := make([]converter.Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxConcurrency)

	var mu sync.Mutex
	for i, path := range paths {
		g.Go(func() error {
			r := newConverter(cfg, table, files, path).Run(gctx)
			mu.Lock()
			results[i] = r
			printResult(r)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func newFileManager(cfg *config.MainConfig) *utils.FileManager {
	files := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.ErrorDir)
	files.OutputNameFormat = cfg.OutputNameFormat
	files.ArchiveOnSuccess = cfg.Archive()
	return files
}

func newConverter(cfg *config.MainConfig, table *lookup.Table, files *utils.FileManager, path string) *converter.Converter {
	return converter.New(path, table, files,
		converter.WithOptions(transformOptions(cfg)),
		converter.WithEncoding(cfg.InputEncoding),
		converter.WithDryRun(dryRun),
		converter.WithLogger(logger),
	)
}

// =============================================================================
// REPORTING
// =============================================================================

func printResult(r converter.Result) {
	name := filepath.Base(r.FilePath)
	switch {
	case !r.Success:
		fmt.Printf("  ✗ %s: %v\n", name, r.Error)
	case r.OutputFile == "":
		fmt.Printf("  ✓ %s (dry run, %d of %d products matched)\n", name, r.Stats.Matched, r.Stats.Products)
	default:
		fmt.Printf("  ✓ %s -> %s (%d of %d products matched)\n", name, r.OutputFile, r.Stats.Matched, r.Stats.Products)
	}
}

func printSummary(results []converter.Result, elapsed time.Duration) {
	var successCount, errorCount, matched int
	for _, r := range results {
		if r.Success {
			successCount++
			matched += r.Stats.Matched
		} else {
			errorCount++
		}
	}

	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total files:      %d\n", len(results))
	fmt.Printf("Successful:       %d\n", successCount)
	fmt.Printf("Errors:           %d\n", errorCount)
	fmt.Printf("Products matched: %d\n", matched)
	fmt.Printf("Time elapsed:     %s\n", elapsed)

	if errorCount > 0 {
		fmt.Println("\nError logs have been written to the error directory.")
	}

	logger.Info("Batch finished",
		zap.Int("files", len(results)),
		zap.Int("succeeded", successCount),
		zap.Int("failed", errorCount),
		zap.Duration("took", elapsed))
}
