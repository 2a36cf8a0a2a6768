// =============================================================================
// CDATA Enricher - Configuration Module
// =============================================================================
//
// This module loads the application configuration from a single YAML file
// (config.yaml by default, --config to override).
//
// SECTIONS:
//   - Directories: where documents arrive, where results and archives go
//   - Lookup: the product reference table and its column layout
//   - Namespace: the prefix binding the embedded payload uses
//   - Server: the HTTP endpoint settings for the serve command
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/cdata-enricher/internal/lookup"
	"github.com/ginjaninja78/cdata-enricher/internal/types"
	"github.com/ginjaninja78/cdata-enricher/pkg/utils"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for documents to enrich.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives enriched documents.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives inputs after they were enriched.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// ErrorDir receives one error log per failed document.
	// Default: "./errors"
	ErrorDir string `yaml:"error_dir"`

	// InputPattern selects files in InputDir.
	// Default: "*.xml"
	InputPattern string `yaml:"input_pattern"`

	// OutputNameFormat names output files.
	// Placeholders:
	//   {name}      - Input file name without extension
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	// Default: "{name}_enriched.xml"
	OutputNameFormat string `yaml:"output_name_format"`

	// InputEncoding is the text encoding of incoming documents. Output is
	// written in the same encoding.
	// Default: "utf-8"
	InputEncoding string `yaml:"input_encoding"`

	// ArchiveOnSuccess moves enriched inputs to InputArchiveDir.
	// Default: true
	ArchiveOnSuccess *bool `yaml:"archive_on_success"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// MaxConcurrency is the maximum number of documents processed at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// Namespace is the prefix binding of the embedded payload.
	Namespace NamespaceConfig `yaml:"namespace"`

	// Lookup describes the product reference table.
	Lookup LookupConfig `yaml:"lookup"`

	// Server configures the serve command.
	Server ServerConfig `yaml:"server"`
}

// NamespaceConfig is the payload namespace binding.
type NamespaceConfig struct {
	// Default: "v1"
	Prefix string `yaml:"prefix"`

	// Default: "v1.snt"
	URI string `yaml:"uri"`
}

// LookupConfig describes the lookup table source.
type LookupConfig struct {
	// Path is the XLSX or CSV file with product names and identifiers.
	Path string `yaml:"path"`

	// Sheet is the worksheet to read. Empty means the first sheet.
	Sheet string `yaml:"sheet"`

	// NameColumn, GTINColumn and NTINColumn are column letters.
	// Default: "A", "B", "C"
	NameColumn string `yaml:"name_column"`
	GTINColumn string `yaml:"gtin_column"`
	NTINColumn string `yaml:"ntin_column"`

	// HeaderRows is the number of rows skipped before data.
	// Default: 1
	HeaderRows *int `yaml:"header_rows"`

	// CSVDelimiter is used when Path is a CSV file.
	// Default: ","
	CSVDelimiter string `yaml:"csv_delimiter"`

	// Encoding of CSV sources.
	// Default: "utf-8"
	Encoding string `yaml:"encoding"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Addr is the listen address.
	// Default: ":8080"
	Addr string `yaml:"addr"`

	// MaxBodyBytes limits the size of posted documents.
	// Default: 10 MiB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// RequestTimeout bounds each request.
	// Default: 30s
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. A missing file is
//     not an error when allowMissing is true; defaults are used instead.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string, allowMissing bool) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err) && allowMissing:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.ErrorDir == "" {
		config.ErrorDir = "./errors"
	}
	if config.InputPattern == "" {
		config.InputPattern = "*.xml"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "{name}_enriched.xml"
	}
	if config.InputEncoding == "" {
		config.InputEncoding = "utf-8"
	}
	if config.ArchiveOnSuccess == nil {
		archive := true
		config.ArchiveOnSuccess = &archive
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}

	if config.Namespace.Prefix == "" && config.Namespace.URI == "" {
		def := types.DefaultBinding()
		config.Namespace = NamespaceConfig{Prefix: def.Prefix, URI: def.URI}
	}

	cols := lookup.DefaultColumns()
	if config.Lookup.NameColumn == "" {
		config.Lookup.NameColumn = cols.Name
	}
	if config.Lookup.GTINColumn == "" {
		config.Lookup.GTINColumn = cols.GTIN
	}
	if config.Lookup.NTINColumn == "" {
		config.Lookup.NTINColumn = cols.NTIN
	}
	if config.Lookup.HeaderRows == nil {
		rows := cols.HeaderRows
		config.Lookup.HeaderRows = &rows
	}
	if config.Lookup.CSVDelimiter == "" {
		config.Lookup.CSVDelimiter = cols.Delimiter
	}
	if config.Lookup.Encoding == "" {
		config.Lookup.Encoding = "utf-8"
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Server.MaxBodyBytes <= 0 {
		config.Server.MaxBodyBytes = 10 << 20
	}
	if config.Server.RequestTimeout <= 0 {
		config.Server.RequestTimeout = 30 * time.Second
	}
}

// validateMainConfig checks values that defaults cannot fix.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}

	if (config.Namespace.Prefix == "") != (config.Namespace.URI == "") {
		return fmt.Errorf("namespace prefix and uri must be set together")
	}

	if _, err := filepath.Match(config.InputPattern, "probe.xml"); err != nil {
		return fmt.Errorf("invalid input_pattern %q: %w", config.InputPattern, err)
	}

	if _, err := utils.LookupEncoding(config.InputEncoding); err != nil {
		return err
	}
	if _, err := utils.LookupEncoding(config.Lookup.Encoding); err != nil {
		return err
	}

	if *config.Lookup.HeaderRows < 0 {
		return fmt.Errorf("lookup header_rows must not be negative")
	}

	return nil
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// Binding returns the configured namespace binding.
func (c *MainConfig) Binding() types.Binding {
	return types.Binding{Prefix: c.Namespace.Prefix, URI: c.Namespace.URI}
}

// LookupColumns returns the lookup column layout.
func (c *MainConfig) LookupColumns() lookup.Columns {
	return lookup.Columns{
		Sheet:      c.Lookup.Sheet,
		Name:       c.Lookup.NameColumn,
		GTIN:       c.Lookup.GTINColumn,
		NTIN:       c.Lookup.NTINColumn,
		HeaderRows: *c.Lookup.HeaderRows,
		Delimiter:  c.Lookup.CSVDelimiter,
	}
}

// Archive reports whether inputs are archived after success.
func (c *MainConfig) Archive() bool {
	return c.ArchiveOnSuccess == nil || *c.ArchiveOnSuccess
}

// EnsureDirectories creates the working directories.
func (c *MainConfig) EnsureDirectories() error {
	for _, dir := range []string{c.InputDir, c.OutputDir, c.InputArchiveDir, c.ErrorDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
