// =============================================================================
// CDATA Enricher - Enrich Command
// =============================================================================
//
// This file defines the 'enrich' command, which enriches a single document
// and writes the result to a file or to standard output.
//
// COMMAND USAGE:
//   enricher enrich <file> [flags]
//
// FLAGS:
//   --out, -o : Output path ("-" or empty for standard output)
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/cdata-enricher/internal/converter"
	"github.com/ginjaninja78/cdata-enricher/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// outPath is where the enriched document is written.
var outPath string

var enrichCmd = &cobra.Command{
	Use:   "enrich <file>",
	Short: "Enrich a single document",
	Long: `Enrich reads one document ("-" for standard input), adds identifiers to
its products and writes the result. Nothing is written when the document has
no CDATA payload or the payload is not valid XML.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnrich(args[0], outPath, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().StringVarP(
		&outPath,
		"out",
		"o",
		"",
		"Output file (default: standard output)",
	)
}

func runEnrich(inputPath, outputPath string, stdout io.Writer) error {
	table, err := loadTable(appConfig)
	if err != nil {
		return err
	}

	var raw []byte
	if inputPath == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(inputPath)
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	document, err := utils.DecodeText(raw, appConfig.InputEncoding)
	if err != nil {
		return err
	}

	enriched, stats, err := converter.TransformWithStats(document, table, transformOptions(appConfig))
	if err != nil {
		return err
	}
	logger.Info("Document enriched",
		zap.String("file", inputPath),
		zap.Int("products", stats.Products),
		zap.Int("matched", stats.Matched),
		zap.Strings("unmatched", stats.UnmatchedNames))

	out, err := utils.EncodeText(enriched, appConfig.InputEncoding)
	if err != nil {
		return err
	}

	if outputPath == "" || outputPath == "-" {
		_, err = stdout.Write(out)
		return err
	}
	return utils.WriteFileAtomic(outputPath, out)
}
