// =============================================================================
// CDATA Enricher - XML Writer Module
// =============================================================================
//
// This module turns a mutated payload tree back into text:
//
//   1. Indent the tree deterministically (two spaces per level)
//   2. Serialize the root element with etree
//   3. Restore the bound namespace prefix if the output carries a
//      synthetic one (ns0, ns1, ...) for the bound URI
//
// The prefix repair is a plain text substitution so that the enrichment
// logic never depends on how a serializer names namespaces.
//
// =============================================================================

package xmlwriter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/cdata-enricher/internal/payload"
	"github.com/ginjaninja78/cdata-enricher/internal/types"
)

// =============================================================================
// WRITE OPTIONS
// =============================================================================

// Options controls serialization.
type Options struct {
	// Indent is the string added per nesting level.
	// Default: "  " (two spaces)
	Indent string

	// SkipIndent leaves the tree's whitespace as it is.
	SkipIndent bool
}

// DefaultOptions returns the options used for enriched payloads.
func DefaultOptions() Options {
	return Options{Indent: "  "}
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// Write indents the tree and serializes its root element.
func Write(tree *payload.Tree) (string, error) {
	return WriteWithOptions(tree, DefaultOptions())
}

// WriteWithOptions serializes the tree using custom options.
func WriteWithOptions(tree *payload.Tree, options Options) (string, error) {
	if tree == nil || tree.Root == nil {
		return "", fmt.Errorf("nothing to write: tree has no root element")
	}

	if !options.SkipIndent {
		IndentWith(tree.Root, options.Indent)
	}

	// Canonical text escaping touches only &, < and > in character data,
	// leaving quotes in product names alone.
	tree.Doc.WriteSettings.CanonicalText = true
	tree.Doc.WriteSettings.CanonicalAttrVal = true

	text, err := tree.Doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("failed to serialize payload: %w", err)
	}

	return RestorePrefix(text, tree.Binding), nil
}

// =============================================================================
// PREFIX REPAIR
// =============================================================================

// syntheticDecl matches a generated namespace declaration, e.g.
// xmlns:ns0="v1.snt".
var syntheticDecl = regexp.MustCompile(`xmlns:(ns[0-9]+)="([^"]*)"`)

// RestorePrefix rewrites every synthetic prefix that a serializer bound to
// the binding's URI back to the binding's prefix. Text without such a
// declaration is returned unchanged.
func RestorePrefix(text string, binding types.Binding) string {
	if binding.IsZero() || binding.Prefix == "" {
		return text
	}

	for _, m := range syntheticDecl.FindAllStringSubmatch(text, -1) {
		synthetic, uri := m[1], m[2]
		if uri != binding.URI || synthetic == binding.Prefix {
			continue
		}

		// Element and attribute names: <ns0:a, </ns0:a, ns0:attr="...".
		tokens := regexp.MustCompile(`(</?|\s)` + regexp.QuoteMeta(synthetic) + `:`)
		text = tokens.ReplaceAllString(text, "${1}"+binding.Prefix+":")

		text = strings.ReplaceAll(text,
			fmt.Sprintf(`xmlns:%s="%s"`, synthetic, uri),
			fmt.Sprintf(`xmlns:%s="%s"`, binding.Prefix, binding.URI))
	}

	return text
}
