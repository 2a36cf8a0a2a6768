// =============================================================================
// CDATA Enricher - Transform Pipeline
// =============================================================================
//
// Transform is the single entry point of the core. It is a pure function of
// the document text and the lookup table:
//
//   document ─▶ envelope.Split ─▶ payload.Parse ─▶ enricher.Enrich
//            ─▶ xmlwriter.Write ─▶ Envelope.Reassemble ─▶ document
//
// FAILURE EXITS:
//   - *envelope.MissingCDATAError     (no CDATA section in the document)
//   - *payload.MalformedPayloadError  (CDATA content is not XML)
//
// Either the complete document is returned or an error is; there is no
// partial output. Transform holds no state, so concurrent calls sharing one
// lookup table are safe.
//
// =============================================================================

package converter

import (
	"github.com/ginjaninja78/cdata-enricher/internal/enricher"
	"github.com/ginjaninja78/cdata-enricher/internal/envelope"
	"github.com/ginjaninja78/cdata-enricher/internal/payload"
	"github.com/ginjaninja78/cdata-enricher/internal/types"
	"github.com/ginjaninja78/cdata-enricher/internal/xmlwriter"
)

// Options configures a transform.
type Options struct {
	// Binding is the payload's namespace binding.
	// Default: v1 -> v1.snt
	Binding types.Binding

	// Writer controls payload serialization.
	Writer xmlwriter.Options
}

// DefaultOptions returns the options used for production documents.
func DefaultOptions() Options {
	return Options{
		Binding: types.DefaultBinding(),
		Writer:  xmlwriter.DefaultOptions(),
	}
}

// Transform enriches the products of the payload embedded in document.
func Transform(document string, table enricher.Table, opts Options) (string, error) {
	out, _, err := TransformWithStats(document, table, opts)
	return out, err
}

// TransformWithStats is Transform that also reports what the enricher did.
func TransformWithStats(document string, table enricher.Table, opts Options) (string, enricher.Stats, error) {
	env, err := envelope.Split(document)
	if err != nil {
		return "", enricher.Stats{}, err
	}

	tree, err := payload.Parse(env.InnerXML(), opts.Binding)
	if err != nil {
		return "", enricher.Stats{}, err
	}

	stats := enricher.Enrich(tree, table)

	if opts.Writer.Indent == "" && !opts.Writer.SkipIndent {
		opts.Writer.Indent = xmlwriter.DefaultOptions().Indent
	}
	inner, err := xmlwriter.WriteWithOptions(tree, opts.Writer)
	if err != nil {
		return "", enricher.Stats{}, err
	}

	return env.Reassemble(inner), stats, nil
}
