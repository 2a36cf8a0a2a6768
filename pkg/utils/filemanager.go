// =============================================================================
// CDATA Enricher - File Manager Utility
// =============================================================================
//
// This module provides the file handling around the transform:
//   - Input discovery
//   - Output file naming and atomic writes
//   - Archival of processed inputs
//   - Per-document error logs
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to the input archive after successful processing
//   - Failed files remain in their original location
//   - Each failure leaves <name>.error.log in the error directory
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the enricher.
type FileManager struct {
	// InputDir is where documents arrive.
	InputDir string

	// OutputDir is where enriched documents are written.
	OutputDir string

	// InputArchiveDir receives processed inputs.
	InputArchiveDir string

	// ErrorDir receives error logs.
	ErrorDir string

	// OutputNameFormat names output files, see GenerateOutputFileName.
	OutputNameFormat string

	// ArchiveOnSuccess moves inputs to InputArchiveDir once enriched.
	ArchiveOnSuccess bool

	// now is replaceable in tests.
	now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir, errorDir string) *FileManager {
	return &FileManager{
		InputDir:         inputDir,
		OutputDir:        outputDir,
		InputArchiveDir:  inputArchiveDir,
		ErrorDir:         errorDir,
		OutputNameFormat: "{name}_enriched.xml",
		ArchiveOnSuccess: true,
		now:              time.Now,
	}
}

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.InputDir, fm.OutputDir, fm.InputArchiveDir, fm.ErrorDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists regular files in InputDir matching pattern, sorted
// by name. An empty pattern means "*.xml".
func (fm *FileManager) DiscoverInputFiles(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.xml"
	}

	matches, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid input pattern %q: %w", pattern, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)

	return files, nil
}

// Matches reports whether a path's base name matches the pattern.
func Matches(pattern, path string) bool {
	if pattern == "" {
		pattern = "*.xml"
	}
	ok, err := filepath.Match(pattern, filepath.Base(path))
	return err == nil && ok
}

// =============================================================================
// OUTPUT FILES
// =============================================================================

// OutputPath returns where the enriched version of inputPath is written.
func (fm *FileManager) OutputPath(inputPath string) string {
	base := filepath.Base(inputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(fm.OutputDir, GenerateOutputFileName(fm.OutputNameFormat, name, fm.clock()))
}

// GenerateOutputFileName expands an output name format.
//
// Placeholders:
//   {name}      - Input file name without extension
//   {uuid}      - A random UUID
//   {timestamp} - Timestamp (YYYYMMDD_HHMMSS)
//   {date}      - Date (YYYYMMDD)
//
// The result always ends in .xml.
func GenerateOutputFileName(format, name string, now time.Time) string {
	if format == "" {
		format = "{name}_enriched.xml"
	}

	result := strings.NewReplacer(
		"{name}", name,
		"{uuid}", uuid.New().String(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
	).Replace(format)

	if !strings.HasSuffix(strings.ToLower(result), ".xml") {
		result += ".xml"
	}
	return result
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never see a partial document.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory. When an
// archived file of the same name exists, a timestamp is added to the name.
//
// RETURNS:
//   - The path to the archived file (the input path if archiving is off).
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	if err := os.MkdirAll(fm.InputArchiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := filepath.Join(fm.InputArchiveDir, filepath.Base(filePath))
	if FileExists(archivePath) {
		ext := filepath.Ext(archivePath)
		archivePath = strings.TrimSuffix(archivePath, ext) + "_" + fm.clock().Format("20060102_150405.000000000") + ext
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Cross-device moves need a copy.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// WriteErrorLog records why a document could not be enriched. The log is
// named after the input file and overwritten on each failure.
func (fm *FileManager) WriteErrorLog(inputPath string, kind string, cause error) (string, error) {
	if fm.ErrorDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(fm.ErrorDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create error directory: %w", err)
	}

	logPath := filepath.Join(fm.ErrorDir, filepath.Base(inputPath)+".error.log")

	var b strings.Builder
	fmt.Fprintf(&b, "Timestamp: %s\n", fm.clock().Format(time.RFC3339))
	fmt.Fprintf(&b, "File:      %s\n", inputPath)
	fmt.Fprintf(&b, "Kind:      %s\n", kind)
	fmt.Fprintf(&b, "Error:     %v\n", cause)

	if err := os.WriteFile(logPath, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write error log: %w", err)
	}
	return logPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
