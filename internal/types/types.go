// =============================================================================
// CDATA Enricher - Shared Types
// =============================================================================
//
// This package contains small value types shared by several modules, kept
// here to avoid import cycles. Types defined here are used by:
//   - lookup
//   - payload
//   - enricher
//   - xmlwriter
//
// =============================================================================

package types

// =============================================================================
// PRODUCT IDENTIFIERS
// =============================================================================

// Identifiers is the identifier pair attached to a matched product.
// Both values are opaque strings and may be empty when the source cell was
// blank.
type Identifiers struct {
	GTIN string
	NTIN string
}

// =============================================================================
// NAMESPACE BINDING
// =============================================================================

// Binding is the one namespace prefix the payload is known to use.
type Binding struct {
	// Prefix is the prefix spelling that must survive serialization.
	// Default: "v1"
	Prefix string

	// URI is the namespace URI the prefix is bound to.
	// Default: "v1.snt"
	URI string
}

// DefaultBinding returns the binding used by the documents we receive.
func DefaultBinding() Binding {
	return Binding{Prefix: "v1", URI: "v1.snt"}
}

// IsZero reports whether no binding is configured.
func (b Binding) IsZero() bool {
	return b.Prefix == "" && b.URI == ""
}
