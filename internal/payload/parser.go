// =============================================================================
// CDATA Enricher - Payload Parser
// =============================================================================
//
// This module turns the text captured from the CDATA section into an etree
// document that the enricher can mutate. The payload is expected to bind a
// single well-known namespace prefix (conventionally "v1" -> "v1.snt"); the
// binding is recorded on the tree so the writer can put the original prefix
// back if serialization ever renames it.
//
// FAILURE MODES:
//   - Empty text
//   - Unbalanced or otherwise ill-formed markup
//   - More than one root element, or text beside the root
//
// All of them are reported as *MalformedPayloadError and abort the transform.
//
// =============================================================================

package payload

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/ginjaninja78/cdata-enricher/internal/types"
)

// MalformedPayloadError is returned when the CDATA content is not a single
// well-formed XML document.
type MalformedPayloadError struct {
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("embedded XML payload is malformed: %v", e.Err)
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}

// Tree is a parsed payload.
type Tree struct {
	// Doc holds Root as its only token.
	Doc *etree.Document

	// Root is the payload's root element.
	Root *etree.Element

	// Binding is the namespace the payload is known to use.
	Binding types.Binding
}

// Parse parses the CDATA inner text into a tree.
//
// PARAMETERS:
//   - text: The captured CDATA content. Surrounding whitespace is ignored.
//   - binding: The namespace binding to record on the tree.
//
// RETURNS:
//   - The parsed tree.
//   - A *MalformedPayloadError if the text is not a single XML document.
func Parse(text string, binding types.Binding) (*Tree, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &MalformedPayloadError{Err: errors.New("payload is empty")}
	}

	if err := checkWellFormed(text); err != nil {
		return nil, &MalformedPayloadError{Err: err}
	}

	src := etree.NewDocument()
	src.ReadSettings.CharsetReader = passThrough
	if err := src.ReadFromString(text); err != nil {
		return nil, &MalformedPayloadError{Err: err}
	}

	root, err := singleRoot(src)
	if err != nil {
		return nil, &MalformedPayloadError{Err: err}
	}

	// Only the root element is serialized back. Declarations, comments and
	// processing instructions are dropped, inside the root as well.
	stripMarkup(root)
	doc := etree.NewDocument()
	doc.SetRoot(root)

	return &Tree{
		Doc:     doc,
		Root:    root,
		Binding: binding,
	}, nil
}

// passThrough ignores the charset named in an inner declaration. The
// payload has already been decoded to UTF-8 along with its envelope.
func passThrough(_ string, r io.Reader) (io.Reader, error) {
	return r, nil
}

// checkWellFormed runs the strict encoding/xml tokenizer over the text.
// etree reads raw tokens and does not verify that end tags match.
func checkWellFormed(text string) error {
	dec := xml.NewDecoder(strings.NewReader(text))
	dec.Strict = true
	dec.CharsetReader = passThrough
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func singleRoot(doc *etree.Document) (*etree.Element, error) {
	var root *etree.Element
	for _, tok := range doc.Child {
		switch t := tok.(type) {
		case *etree.Element:
			if root != nil {
				return nil, fmt.Errorf("more than one root element (<%s> and <%s>)", root.FullTag(), t.FullTag())
			}
			root = t
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				return nil, fmt.Errorf("unexpected text outside the root element: %q", t.Data)
			}
		}
	}
	if root == nil {
		return nil, errors.New("no root element")
	}
	return root, nil
}

// stripMarkup removes comments and processing instructions from the
// subtree. Character data on either side of a removed token is merged by
// etree's text accessors.
func stripMarkup(el *etree.Element) {
	for i := len(el.Child) - 1; i >= 0; i-- {
		switch t := el.Child[i].(type) {
		case *etree.Comment, *etree.ProcInst:
			el.RemoveChildAt(i)
		case *etree.Element:
			stripMarkup(t)
		}
	}
}
