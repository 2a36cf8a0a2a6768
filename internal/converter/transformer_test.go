package converter

import (
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/beevik/etree"
	"github.com/ginjaninja78/cdata-enricher/internal/envelope"
	"github.com/ginjaninja78/cdata-enricher/internal/lookup"
	"github.com/ginjaninja78/cdata-enricher/internal/payload"
	"github.com/ginjaninja78/cdata-enricher/internal/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var whitespace = regexp.MustCompile(`\s+`)

func squash(s string) string {
	return whitespace.ReplaceAllString(s, "")
}

func testTable() *lookup.Table {
	return lookup.FromMap(map[string]types.Identifiers{
		"Widget": {GTIN: "123", NTIN: "456"},
		"Gadget": {GTIN: "", NTIN: ""},
	})
}

const soapDocument = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <request><![CDATA[<v1:order xmlns:v1="v1.snt">
  <v1:products>
    <product>
      <productName> Widget </productName>
    </product>
    <product>
      <productName>Unknown</productName>
      <qty>2</qty>
    </product>
    <product>
      <qty>1</qty>
    </product>
  </v1:products>
</v1:order>]]></request>
  </soap:Body>
</soap:Envelope>
`

func TestTransformDocument(t *testing.T) {
	out, stats, err := TransformWithStats(soapDocument, testTable(), DefaultOptions())
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <request><![CDATA[
<v1:order xmlns:v1="v1.snt">
  <v1:products>
    <product>
      <productName> Widget </productName>
      <gtin>123</gtin>
      <ntin>456</ntin>
    </product>
    <product>
      <productName>Unknown</productName>
      <qty>2</qty>
    </product>
    <product>
      <qty>1</qty>
    </product>
  </v1:products>
</v1:order>
]]></request>
  </soap:Body>
</soap:Envelope>
`
	assert.Equal(t, want, out)

	assert.Equal(t, 3, stats.Products)
	assert.Equal(t, 1, stats.Matched)
	assert.Equal(t, 1, stats.Unmatched)
	assert.Equal(t, 1, stats.Unnamed)
	assert.Equal(t, []string{"Unknown"}, stats.UnmatchedNames)
	assert.False(t, stats.Qualified)
}

func TestTransformSingleProduct(t *testing.T) {
	doc := "<msg><![CDATA[<product><productName>Widget</productName></product>]]></msg>"

	out, err := Transform(doc, testTable(), DefaultOptions())
	require.NoError(t, err)

	assert.Contains(t, squash(out), "<product><productName>Widget</productName><gtin>123</gtin><ntin>456</ntin></product>")
	assert.True(t, strings.HasPrefix(out, "<msg><![CDATA[\n<product>\n  <productName>"))
}

func TestTransformEmptyIdentifiers(t *testing.T) {
	doc := "<msg><![CDATA[<list><product><productName>Gadget</productName></product></list>]]></msg>"

	out, err := Transform(doc, testTable(), DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, squash(out), "<productName>Gadget</productName><gtin/><ntin/>")
}

func TestTransformKeepsDeclaration(t *testing.T) {
	decl := `<?xml version="1.0" encoding="windows-1251" standalone="yes"?>`
	doc := "\n\n" + decl + "\n<m><![CDATA[<a/>]]></m>"

	out, err := Transform(doc, testTable(), DefaultOptions())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, decl+"\n<m>"))
}

func TestTransformInnerDeclarationCharset(t *testing.T) {
	for _, charset := range []string{"windows-1251", "koi8-r"} {
		t.Run(charset, func(t *testing.T) {
			doc := `<m><![CDATA[<?xml version="1.0" encoding="` + charset + `"?><order><product><productName>Widget</productName></product></order>]]></m>`

			out, stats, err := TransformWithStats(doc, testTable(), DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, 1, stats.Matched)
			assert.Contains(t, squash(out), "<productName>Widget</productName><gtin>123</gtin><ntin>456</ntin>")
		})
	}
}

func TestTransformDropsPayloadComments(t *testing.T) {
	doc := "<m><![CDATA[<o><!-- c --><product><productName>Widget</productName></product></o>]]></m>"

	out, err := Transform(doc, testTable(), DefaultOptions())
	require.NoError(t, err)

	want := "<m><![CDATA[\n" +
		"<o>\n" +
		"  <product>\n" +
		"    <productName>Widget</productName>\n" +
		"    <gtin>123</gtin>\n" +
		"    <ntin>456</ntin>\n" +
		"  </product>\n" +
		"</o>\n" +
		"]]></m>"
	assert.Equal(t, want, out)
}

func TestTransformQualifiedProducts(t *testing.T) {
	doc := `<m><![CDATA[<v1:order xmlns:v1="v1.snt"><v1:product><productName>Widget</productName></v1:product><product><productName>Widget</productName></product></v1:order>]]></m>`

	out, stats, err := TransformWithStats(doc, testTable(), DefaultOptions())
	require.NoError(t, err)

	assert.True(t, stats.Qualified)
	assert.Equal(t, 1, stats.Products, "unqualified products are ignored once qualified ones exist")
	assert.Contains(t, squash(out), `<v1:product><productName>Widget</productName><gtin>123</gtin><ntin>456</ntin></v1:product><product><productName>Widget</productName></product>`)
	assert.Contains(t, out, `xmlns:v1="v1.snt"`)
	assert.NotContains(t, out, "ns0")
}

func TestTransformDefaultNamespaceProducts(t *testing.T) {
	doc := `<m><![CDATA[<order xmlns="v1.snt"><product><productName>Widget</productName></product></order>]]></m>`

	out, stats, err := TransformWithStats(doc, testTable(), DefaultOptions())
	require.NoError(t, err)
	assert.True(t, stats.Qualified)
	assert.Contains(t, squash(out), "<gtin>123</gtin><ntin>456</ntin></product>")
}

func TestTransformUnchangedProducts(t *testing.T) {
	inner := `<order><product><sku>1</sku><productName>Nope</productName></product><product><sku>2</sku></product></order>`
	doc := "<m><![CDATA[" + inner + "]]></m>"

	out, err := Transform(doc, testTable(), DefaultOptions())
	require.NoError(t, err)

	before := childTags(t, inner)
	after := childTags(t, extractPayload(t, out))
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("product children changed (-before +after):\n%s", diff)
	}
}

func TestTransformIsNotIdempotent(t *testing.T) {
	doc := "<m><![CDATA[<order><product><productName>Widget</productName></product></order>]]></m>"

	once, err := Transform(doc, testTable(), DefaultOptions())
	require.NoError(t, err)
	twice, err := Transform(once, testTable(), DefaultOptions())
	require.NoError(t, err)

	tags := childTags(t, extractPayload(t, twice))
	assert.Equal(t, [][]string{{"productName", "gtin", "ntin", "gtin", "ntin"}}, tags)
}

func TestTransformFailures(t *testing.T) {
	t.Run("missing CDATA", func(t *testing.T) {
		out, err := Transform("<m><product/></m>", testTable(), DefaultOptions())
		assert.Empty(t, out)

		var missing *envelope.MissingCDATAError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, KindMissingCDATA, ErrorKind(err))
	})

	t.Run("malformed payload", func(t *testing.T) {
		out, err := Transform("<m><![CDATA[<order><product></order>]]></m>", testTable(), DefaultOptions())
		assert.Empty(t, out)

		var malformed *payload.MalformedPayloadError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, KindMalformedPayload, ErrorKind(err))
	})
}

func TestTransformCustomBinding(t *testing.T) {
	opts := DefaultOptions()
	opts.Binding = types.Binding{Prefix: "v2", URI: "urn:v2"}
	doc := `<m><![CDATA[<v2:o xmlns:v2="urn:v2"><v2:product><productName>Widget</productName></v2:product></v2:o>]]></m>`

	_, stats, err := TransformWithStats(doc, testTable(), opts)
	require.NoError(t, err)
	assert.True(t, stats.Qualified)
	assert.Equal(t, 1, stats.Matched)
}

func TestTransformConcurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	table := testTable()
	want, err := Transform(soapDocument, table, DefaultOptions())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Transform(soapDocument, table, DefaultOptions())
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func extractPayload(t *testing.T, document string) string {
	t.Helper()
	env, err := envelope.Split(document)
	require.NoError(t, err)
	return env.InnerXML()
}

// childTags lists the child element tags of every product, in order.
func childTags(t *testing.T, xmlText string) [][]string {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(xmlText))

	var out [][]string
	for _, p := range doc.FindElements("//product") {
		var tags []string
		for _, c := range p.ChildElements() {
			tags = append(tags, c.Tag)
		}
		out = append(out, tags)
	}
	return out
}
