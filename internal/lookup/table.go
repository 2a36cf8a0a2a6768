// =============================================================================
// CDATA Enricher - Lookup Table
// =============================================================================
//
// The lookup table maps a product name to its GTIN/NTIN pair. It is built
// once from a spreadsheet (or CSV export) before any document is processed
// and is never modified afterwards, so any number of goroutines may read it
// without locking.
//
// SOURCE LAYOUT (default columns):
//
//   | Column A      | Column B      | Column C      |
//   |---------------|---------------|---------------|
//   | Product name  | GTIN          | NTIN          |
//   | Widget        | 4601234567890 | 0460123456789 |
//
// =============================================================================

package lookup

import (
	"strings"

	"github.com/ginjaninja78/cdata-enricher/internal/types"
)

// Row is one source row before it is keyed into the table.
type Row struct {
	Name string
	GTIN string
	NTIN string

	// Line is the 1-based row number in the source, for warnings.
	Line int
}

// Table is an immutable product name -> identifiers mapping.
type Table struct {
	entries map[string]types.Identifiers
	source  string
}

// NewTable builds a table from rows. Names and identifiers are trimmed,
// rows with an empty name are skipped, and a later row with the same name
// replaces an earlier one.
func NewTable(rows []Row) *Table {
	entries := make(map[string]types.Identifiers, len(rows))
	for _, r := range rows {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		entries[name] = types.Identifiers{
			GTIN: strings.TrimSpace(r.GTIN),
			NTIN: strings.TrimSpace(r.NTIN),
		}
	}
	return &Table{entries: entries}
}

// FromMap builds a table from an existing mapping. The map is copied.
func FromMap(m map[string]types.Identifiers) *Table {
	rows := make([]Row, 0, len(m))
	for name, ids := range m {
		rows = append(rows, Row{Name: name, GTIN: ids.GTIN, NTIN: ids.NTIN})
	}
	return NewTable(rows)
}

// Get returns the identifiers for a product name. The name is trimmed
// before the lookup.
func (t *Table) Get(name string) (types.Identifiers, bool) {
	if t == nil {
		return types.Identifiers{}, false
	}
	ids, ok := t.entries[strings.TrimSpace(name)]
	return ids, ok
}

// Len returns the number of products in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Source returns the path the table was loaded from, if any.
func (t *Table) Source() string {
	if t == nil {
		return ""
	}
	return t.source
}
