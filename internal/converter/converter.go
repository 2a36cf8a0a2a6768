// =============================================================================
// CDATA Enricher - Converter Module
// =============================================================================
//
// This module runs the enrichment for a single file on disk:
//
//   1. Read the file and decode it to UTF-8
//   2. Transform the document (see transformer.go)
//   3. Encode the result back to the input encoding
//   4. Write the output file
//   5. Archive the input file
//
// On failure nothing is written to the output directory; an error log is
// left in the error directory and the input stays where it is.
//
// CONCURRENCY:
//   A Converter handles one file. Many converters may run at once sharing
//   the same lookup table.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ginjaninja78/cdata-enricher/internal/enricher"
	"github.com/ginjaninja78/cdata-enricher/internal/envelope"
	"github.com/ginjaninja78/cdata-enricher/internal/payload"
	"github.com/ginjaninja78/cdata-enricher/pkg/utils"
	"go.uber.org/zap"
)

// Error kinds reported in results, logs and HTTP responses.
const (
	KindMissingCDATA     = "missing_cdata"
	KindMalformedPayload = "malformed_payload"
	KindIO               = "io"
)

// ErrorKind classifies an error returned by Transform or Run.
func ErrorKind(err error) string {
	var missing *envelope.MissingCDATAError
	var malformed *payload.MalformedPayloadError
	switch {
	case errors.As(err, &missing):
		return KindMissingCDATA
	case errors.As(err, &malformed):
		return KindMalformedPayload
	default:
		return KindIO
	}
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFile is the path to the enriched document.
	// This is empty if processing failed or was a dry run.
	OutputFile string

	// ArchivedTo is where the input was moved, if it was.
	ArchivedTo string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats contains enrichment statistics.
	Stats enricher.Stats

	// Duration is the time taken to process the file.
	Duration time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter enriches a single file.
type Converter struct {
	path     string
	table    enricher.Table
	files    *utils.FileManager
	options  Options
	encoding string
	dryRun   bool
	logger   *zap.Logger
}

// Option customizes a Converter.
type Option func(*Converter)

// WithOptions sets the transform options.
func WithOptions(opts Options) Option {
	return func(c *Converter) { c.options = opts }
}

// WithEncoding sets the text encoding of the input and output files.
func WithEncoding(label string) Option {
	return func(c *Converter) { c.encoding = label }
}

// WithDryRun transforms without writing or archiving anything.
func WithDryRun(dryRun bool) Option {
	return func(c *Converter) { c.dryRun = dryRun }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a converter for one input file.
func New(path string, table enricher.Table, files *utils.FileManager, opts ...Option) *Converter {
	c := &Converter{
		path:     path,
		table:    table,
		files:    files,
		options:  DefaultOptions(),
		encoding: "utf-8",
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for the file. The context is checked before
// work starts and before anything is written.
func (c *Converter) Run(ctx context.Context) Result {
	start := time.Now()
	result := Result{FilePath: c.path}
	log := c.logger.With(zap.String("file", c.path))

	fail := func(err error) Result {
		result.Error = err
		result.Duration = time.Since(start)
		kind := ErrorKind(err)
		log.Warn("Document not enriched", zap.String("kind", kind), zap.Error(err))
		if !c.dryRun {
			if logPath, logErr := c.files.WriteErrorLog(c.path, kind, err); logErr != nil {
				log.Error("Failed to write error log", zap.Error(logErr))
			} else if logPath != "" {
				log.Debug("Error log written", zap.String("path", logPath))
			}
		}
		return result
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	raw, err := os.ReadFile(c.path)
	if err != nil {
		return fail(fmt.Errorf("failed to read input: %w", err))
	}

	document, err := utils.DecodeText(raw, c.encoding)
	if err != nil {
		return fail(err)
	}

	enriched, stats, err := TransformWithStats(document, c.table, c.options)
	if err != nil {
		return fail(err)
	}
	result.Stats = stats

	log.Debug("Document enriched",
		zap.Int("products", stats.Products),
		zap.Int("matched", stats.Matched),
		zap.Int("unnamed", stats.Unnamed),
		zap.Int("unmatched", stats.Unmatched),
		zap.Bool("qualified", stats.Qualified))
	for _, name := range stats.UnmatchedNames {
		log.Debug("Product not in lookup table", zap.String("product", name))
	}

	if c.dryRun {
		result.Success = true
		result.Duration = time.Since(start)
		return result
	}

	out, err := utils.EncodeText(enriched, c.encoding)
	if err != nil {
		return fail(err)
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	outputPath := c.files.OutputPath(c.path)
	if err := utils.WriteFileAtomic(outputPath, out); err != nil {
		return fail(err)
	}
	result.OutputFile = outputPath

	archived, err := c.files.ArchiveInputFile(c.path)
	if err != nil {
		// The output exists; only the bookkeeping failed.
		log.Error("Failed to archive input", zap.Error(err))
	} else if archived != c.path {
		result.ArchivedTo = archived
	}

	result.Success = true
	result.Duration = time.Since(start)
	log.Info("Document written",
		zap.String("output", outputPath),
		zap.Int("matched", stats.Matched),
		zap.Duration("took", result.Duration))

	return result
}
