// =============================================================================
// CDATA Enricher - Product Enricher
// =============================================================================
//
// This module appends identifier fields to the product nodes of a parsed
// payload:
//
//   <product>                          <product>
//     <productName>Widget</productName>  <productName>Widget</productName>
//   </product>                   ->      <gtin>123</gtin>
//                                        <ntin>456</ntin>
//                                      </product>
//
// MATCHING:
//   Products are searched in two passes. The first pass looks for <product>
//   in the bound namespace; only when it finds nothing does the second pass
//   look for a plain, unprefixed <product>. Real documents apply the
//   namespace inconsistently, so both forms have to be accepted.
//
// Enrichment is not idempotent: a product that already carries gtin/ntin
// gets a second pair when enriched again.
//
// =============================================================================

package enricher

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/ginjaninja78/cdata-enricher/internal/payload"
	"github.com/ginjaninja78/cdata-enricher/internal/types"
)

// Element names read and written by the enricher.
const (
	ProductTag     = "product"
	ProductNameTag = "productName"
	GTINTag        = "gtin"
	NTINTag        = "ntin"
)

// Table is the read-only lookup the enricher consults.
type Table interface {
	Get(name string) (types.Identifiers, bool)
}

// Stats summarizes one enrichment pass. It is informational only.
type Stats struct {
	// Products is the number of product nodes found.
	Products int

	// Matched is the number of products that received identifiers.
	Matched int

	// Unnamed is the number of products without a productName child.
	Unnamed int

	// Unmatched is the number of named products absent from the table.
	Unmatched int

	// UnmatchedNames lists the trimmed names of unmatched products, in
	// document order.
	UnmatchedNames []string

	// Qualified is true if products were found in the bound namespace.
	Qualified bool
}

// Enrich appends gtin and ntin children to every product whose trimmed
// productName is present in the table. Products without a name, or with a
// name the table does not know, are left untouched.
func Enrich(tree *payload.Tree, table Table) Stats {
	products, qualified := FindProducts(tree)
	stats := Stats{Products: len(products), Qualified: qualified}

	for _, p := range products {
		nameEl := productName(p, tree.Binding)
		if nameEl == nil {
			stats.Unnamed++
			continue
		}

		name := strings.TrimSpace(nameEl.Text())
		ids, ok := table.Get(name)
		if !ok {
			stats.Unmatched++
			stats.UnmatchedNames = append(stats.UnmatchedNames, name)
			continue
		}

		appendField(p, GTINTag, ids.GTIN)
		appendField(p, NTINTag, ids.NTIN)
		stats.Matched++
	}

	return stats
}

// FindProducts returns the product elements of the tree in document order,
// the root included. The qualified search runs first; the unqualified
// search only runs when it found nothing. The second return value reports
// which search produced the result.
func FindProducts(tree *payload.Tree) ([]*etree.Element, bool) {
	uri := tree.Binding.URI
	if uri != "" {
		qualified := collect(tree.Root, func(el *etree.Element) bool {
			return el.Tag == ProductTag && namespaceURI(el) == uri
		})
		if len(qualified) > 0 {
			return qualified, true
		}
	}

	return collect(tree.Root, func(el *etree.Element) bool {
		return el.Tag == ProductTag && el.Space == ""
	}), false
}

// productName finds the direct productName child. An unprefixed child wins
// over one in the bound namespace.
func productName(p *etree.Element, binding types.Binding) *etree.Element {
	var qualified *etree.Element
	for _, child := range p.ChildElements() {
		if child.Tag != ProductNameTag {
			continue
		}
		if child.Space == "" {
			return child
		}
		if qualified == nil && binding.URI != "" && namespaceURI(child) == binding.URI {
			qualified = child
		}
	}
	return qualified
}

func collect(root *etree.Element, match func(*etree.Element) bool) []*etree.Element {
	var out []*etree.Element
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		if match(el) {
			out = append(out, el)
		}
		for _, child := range el.ChildElements() {
			walk(child)
		}
	}
	walk(root)
	return out
}

// appendField adds <tag>value</tag> as the last child of p. An empty value
// leaves the element without content.
func appendField(p *etree.Element, tag, value string) {
	el := p.CreateElement(tag)
	if value != "" {
		el.SetText(value)
	}
}

// namespaceURI resolves the element's prefix, or the default namespace for
// an unprefixed element, against the xmlns declarations in scope.
func namespaceURI(el *etree.Element) string {
	for cur := el; cur != nil; cur = cur.Parent() {
		for _, a := range cur.Attr {
			if el.Space == "" && a.Space == "" && a.Key == "xmlns" {
				return a.Value
			}
			if el.Space != "" && a.Space == "xmlns" && a.Key == el.Space {
				return a.Value
			}
		}
	}
	return ""
}
