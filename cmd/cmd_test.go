package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/cdata-enricher/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const document = `<?xml version="1.0"?>
<msg><![CDATA[<order><product><productName>Widget</productName></product></order>]]></msg>`

func testConfig(t *testing.T) *config.MainConfig {
	t.Helper()
	dir := t.TempDir()

	table := filepath.Join(dir, "products.csv")
	require.NoError(t, os.WriteFile(table, []byte("name,gtin,ntin\nWidget,4006381333931,\nWidget2,,\n"), 0644))

	cfg := config.Default()
	cfg.Lookup.Path = table
	cfg.InputDir = filepath.Join(dir, "input")
	cfg.OutputDir = filepath.Join(dir, "output")
	cfg.InputArchiveDir = filepath.Join(dir, "archive")
	cfg.ErrorDir = filepath.Join(dir, "errors")
	return cfg
}

func TestRunEnrichToWriter(t *testing.T) {
	appConfig = testConfig(t)
	input := filepath.Join(t.TempDir(), "order.xml")
	require.NoError(t, os.WriteFile(input, []byte(document), 0644))

	var out bytes.Buffer
	require.NoError(t, runEnrich(input, "", &out))

	got := out.String()
	assert.True(t, strings.HasPrefix(got, `<?xml version="1.0"?>`+"\n<msg><![CDATA[\n"))
	assert.Contains(t, got, "<gtin>4006381333931</gtin>")
	assert.Contains(t, got, "<ntin/>")
}

func TestRunEnrichToFile(t *testing.T) {
	appConfig = testConfig(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "order.xml")
	output := filepath.Join(dir, "out", "order.xml")
	require.NoError(t, os.WriteFile(input, []byte(document), 0644))

	require.NoError(t, runEnrich(input, output, &bytes.Buffer{}))

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(got), "<gtin>4006381333931</gtin>")
}

func TestRunEnrichRejectsPlainDocument(t *testing.T) {
	appConfig = testConfig(t)
	input := filepath.Join(t.TempDir(), "plain.xml")
	require.NoError(t, os.WriteFile(input, []byte("<msg/>"), 0644))

	var out bytes.Buffer
	require.Error(t, runEnrich(input, "", &out))
	assert.Empty(t, out.String())
}

func TestLoadTableRequiresPath(t *testing.T) {
	cfg := config.Default()
	cfg.Lookup.Path = ""

	_, err := loadTable(cfg)
	require.Error(t, err)
}

func TestLoadLookupReturnsWarnings(t *testing.T) {
	cfg := testConfig(t)

	table, rows, warnings, err := loadLookup(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Lookup.Path, table.Source())
	assert.Len(t, rows, 2)
	require.NotEmpty(t, warnings)
	assert.Equal(t, "Widget2", warnings[0].Name)
}

func TestLookupCommandReport(t *testing.T) {
	appConfig = testConfig(t)

	var out bytes.Buffer
	lookupCmd.SetOut(&out)
	defer lookupCmd.SetOut(nil)

	require.NoError(t, lookupCmd.RunE(lookupCmd, nil))
	assert.Contains(t, out.String(), "  ! ")
	assert.Contains(t, out.String(), appConfig.Lookup.Path+": 2 rows, 2 products")
}

func TestRunProcessBatch(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.EnsureDirectories())
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "a.xml"), []byte(document), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "b.xml"), []byte("<msg/>"), 0644))

	dryRun, filePath, watch = false, "", false
	require.NoError(t, runProcess(t.Context(), cfg))

	assert.FileExists(t, filepath.Join(cfg.OutputDir, "a_enriched.xml"))
	assert.FileExists(t, filepath.Join(cfg.InputArchiveDir, "a.xml"))
	assert.FileExists(t, filepath.Join(cfg.InputDir, "b.xml"))
	assert.FileExists(t, filepath.Join(cfg.ErrorDir, "b.xml.error.log"))
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("warn", false)
	require.NoError(t, err)

	_, err = newLogger("loud", false)
	require.Error(t, err)
}
