package xmlwriter

import (
	"strings"

	"github.com/beevik/etree"
)

// Indent re-indents the subtree rooted at root with two spaces per level.
func Indent(root *etree.Element) {
	IndentWith(root, "  ")
}

// IndentWith re-indents the subtree rooted at root.
//
// An element with children gets text of "\n" plus its children's
// indentation. Every child gets a tail of "\n" plus its own indentation,
// except the last, whose tail drops back to the parent's level. Text and
// tails that already hold non-whitespace content are kept. The root gets
// no tail.
func IndentWith(root *etree.Element, step string) {
	indentElement(root, 0, step)
}

func indentElement(el *etree.Element, level int, step string) {
	own := "\n" + strings.Repeat(step, level)
	children := el.ChildElements()

	if len(children) > 0 {
		if isBlank(el.Text()) {
			el.SetText(own + step)
		}
		for _, child := range children {
			indentElement(child, level+1, step)
		}
		last := children[len(children)-1]
		if isBlank(last.Tail()) {
			last.SetTail(own)
		}
	}

	if level > 0 && isBlank(el.Tail()) {
		el.SetTail(own)
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
