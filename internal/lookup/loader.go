// =============================================================================
// CDATA Enricher - Lookup Table Loaders
// =============================================================================
//
// Loaders read the product reference table maintained by the catalogue team.
// The primary source is an XLSX workbook; CSV exports of the same sheet are
// accepted too. Both produce []Row which NewTable keys by trimmed name.
//
// CUSTOMIZATION:
//   - Column letters, sheet name and header row count come from the
//     "lookup" section of config.yaml.
//
// =============================================================================

package lookup

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/cdata-enricher/pkg/utils"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// COLUMN CONFIGURATION
// =============================================================================

// Columns describes where the lookup fields live in the source.
type Columns struct {
	// Sheet is the worksheet to read. Empty means the first sheet.
	Sheet string

	// Name, GTIN and NTIN are spreadsheet column letters.
	// Default: "A", "B", "C"
	Name string
	GTIN string
	NTIN string

	// HeaderRows is the number of rows to skip before data starts.
	// Default: 1
	HeaderRows int

	// Delimiter is the CSV field separator. Ignored for workbooks.
	// Default: ","
	Delimiter string
}

// DefaultColumns returns the layout of the reference workbook.
func DefaultColumns() Columns {
	return Columns{
		Name:       "A",
		GTIN:       "B",
		NTIN:       "C",
		HeaderRows: 1,
		Delimiter:  ",",
	}
}

// indexes converts the column letters to 0-based indexes.
func (c Columns) indexes() (name, gtin, ntin int, err error) {
	letters := []string{c.Name, c.GTIN, c.NTIN}
	idx := make([]int, len(letters))
	for i, letter := range letters {
		n, err := excelize.ColumnNameToNumber(strings.TrimSpace(letter))
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid column %q: %w", letter, err)
		}
		idx[i] = n - 1
	}
	return idx[0], idx[1], idx[2], nil
}

// =============================================================================
// LOADERS
// =============================================================================

// Load reads a lookup table from an XLSX or CSV file, chosen by extension.
//
// PARAMETERS:
//   - path: The workbook or CSV file.
//   - columns: The column layout.
//   - encoding: The text encoding of CSV files. Ignored for workbooks.
//
// RETURNS:
//   - The table and the rows it was built from (for validation).
//   - An error if the file cannot be read.
func Load(path string, columns Columns, encoding string) (*Table, []Row, error) {
	var (
		rows []Row
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		rows, err = LoadXLSX(path, columns)
	case ".csv", ".txt":
		rows, err = LoadCSV(path, columns, encoding)
	default:
		return nil, nil, fmt.Errorf("unsupported lookup file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, nil, err
	}

	table := NewTable(rows)
	table.source = path
	return table, rows, nil
}

// LoadXLSX reads lookup rows from a workbook.
func LoadXLSX(path string, columns Columns) ([]Row, error) {
	nameIdx, gtinIdx, ntinIdx, err := columns.indexes()
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lookup workbook: %w", err)
	}
	defer f.Close()

	sheetName := columns.Sheet
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("lookup workbook has no sheets")
		}
	}

	// Raw values keep long identifiers out of scientific notation.
	cells, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	return toRows(cells, columns.HeaderRows, nameIdx, gtinIdx, ntinIdx), nil
}

// LoadCSV reads lookup rows from a CSV export.
func LoadCSV(path string, columns Columns, encoding string) ([]Row, error) {
	nameIdx, gtinIdx, ntinIdx, err := columns.indexes()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup file: %w", err)
	}
	text, err := utils.DecodeText(data, encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter(columns.Delimiter)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var cells [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse lookup CSV: %w", err)
		}
		cells = append(cells, record)
	}

	return toRows(cells, columns.HeaderRows, nameIdx, gtinIdx, ntinIdx), nil
}

func delimiter(d string) rune {
	switch d {
	case "\\t", "tab", "TAB":
		return '\t'
	case "pipe", "PIPE":
		return '|'
	case "semicolon":
		return ';'
	case "":
		return ','
	}
	return []rune(d)[0]
}

func toRows(cells [][]string, headerRows, nameIdx, gtinIdx, ntinIdx int) []Row {
	var rows []Row
	for i := headerRows; i < len(cells); i++ {
		row := Row{
			Name: cell(cells[i], nameIdx),
			GTIN: cell(cells[i], gtinIdx),
			NTIN: cell(cells[i], ntinIdx),
			Line: i + 1,
		}
		if strings.TrimSpace(row.Name) == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// cell returns the value at idx, or "" for a short row. Blank cells at the
// end of a row are not returned by the readers at all.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
