package envelope

import "strings"

// WrapCDATA wraps a serialized payload in CDATA markers, each followed or
// preceded by a newline.
func WrapCDATA(payload string) string {
	var b strings.Builder
	b.Grow(len(cdataOpen) + len(payload) + len(cdataClose) + 2)
	b.WriteString(cdataOpen)
	b.WriteByte('\n')
	b.WriteString(payload)
	b.WriteByte('\n')
	b.WriteString(cdataClose)
	return b.String()
}

// Reassemble puts a new payload back where the original CDATA span was and
// reattaches the declaration, if the input had one, on its own line.
func (e *Envelope) Reassemble(payload string) string {
	var b strings.Builder
	if e.HasDeclaration {
		b.WriteString(e.Declaration)
		b.WriteByte('\n')
	}
	b.WriteString(e.Prefix)
	b.WriteString(WrapCDATA(payload))
	b.WriteString(e.Suffix)
	return b.String()
}
