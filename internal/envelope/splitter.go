// =============================================================================
// CDATA Enricher - Envelope Splitter
// =============================================================================
//
// The documents we receive are an outer XML envelope that carries the real
// payload, itself an XML document, verbatim inside a CDATA section. The
// envelope is opaque text: only the CDATA span is ever replaced, everything
// around it is kept byte for byte.
//
// LAYOUT:
//   <?xml version="1.0"?>          <- Declaration (optional)
//   <envelope> ... <data>          <- Prefix
//   <![CDATA[ <order>..</order> ]]> <- Payload (between the markers)
//   </data> ... </envelope>        <- Suffix
//
// =============================================================================

package envelope

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	cdataOpen  = "<![CDATA["
	cdataClose = "]]>"

	declarationOpen  = "<?xml"
	declarationClose = "?>"
)

// cdataPattern spans from the first CDATA open marker to the LAST close
// marker in the text. The greedy match is what existing documents rely on.
var cdataPattern = regexp.MustCompile(`(?s)<!\[CDATA\[(.*)\]\]>`)

// MissingCDATAError is returned when a document carries no CDATA section.
type MissingCDATAError struct {
	// Length is the length of the text that was scanned.
	Length int
}

func (e *MissingCDATAError) Error() string {
	return fmt.Sprintf("document has no CDATA section with an embedded XML payload (scanned %d bytes)", e.Length)
}

// Envelope is a document split around its CDATA payload.
// Prefix + "<![CDATA[" + Payload + "]]>" + Suffix reproduces the text that
// followed the declaration.
type Envelope struct {
	// Declaration is the leading XML declaration, trimmed. Empty when
	// HasDeclaration is false.
	Declaration string

	// HasDeclaration records whether the input started with a declaration.
	HasDeclaration bool

	// Prefix is the envelope text before the CDATA open marker.
	Prefix string

	// Payload is the raw text between the CDATA markers, untrimmed.
	Payload string

	// Suffix is the envelope text after the CDATA close marker.
	Suffix string
}

// Split separates the optional declaration and the CDATA payload from the
// rest of the document.
//
// RETURNS:
//   - The split envelope.
//   - A *MissingCDATAError if the text holds no CDATA section.
func Split(text string) (*Envelope, error) {
	env := &Envelope{}
	rest := text

	trimmed := strings.TrimLeft(text, " \t\r\n")
	if isDeclaration(trimmed) {
		if end := strings.Index(trimmed, declarationClose); end >= 0 {
			end += len(declarationClose)
			env.Declaration = strings.TrimSpace(trimmed[:end])
			env.HasDeclaration = true
			rest = strings.TrimLeft(trimmed[end:], " \t\r\n")
		}
	}

	loc := cdataPattern.FindStringSubmatchIndex(rest)
	if loc == nil {
		return nil, &MissingCDATAError{Length: len(text)}
	}

	env.Prefix = rest[:loc[0]]
	env.Payload = rest[loc[2]:loc[3]]
	env.Suffix = rest[loc[1]:]

	return env, nil
}

// isDeclaration reports whether text starts with an XML declaration and not
// with a processing instruction whose target merely begins with "xml",
// such as <?xml-stylesheet ...?>.
func isDeclaration(text string) bool {
	if !strings.HasPrefix(text, declarationOpen) {
		return false
	}
	rest := text[len(declarationOpen):]
	if rest == "" {
		return false
	}
	switch rest[0] {
	case ' ', '\t', '\r', '\n', '?':
		return true
	}
	return false
}

// InnerXML returns the payload with surrounding whitespace removed, ready
// for parsing.
func (e *Envelope) InnerXML() string {
	return strings.TrimSpace(e.Payload)
}
