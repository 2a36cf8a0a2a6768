package payload

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/ginjaninja78/cdata-enricher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	binding := types.DefaultBinding()

	t.Run("namespaced document", func(t *testing.T) {
		tree, err := Parse("\n  <v1:order xmlns:v1=\"v1.snt\"><product/></v1:order>\n", binding)
		require.NoError(t, err)

		assert.Equal(t, "v1", tree.Root.Space)
		assert.Equal(t, "order", tree.Root.Tag)
		assert.Equal(t, "v1.snt", tree.Root.NamespaceURI())
		assert.Equal(t, binding, tree.Binding)
		assert.Same(t, tree.Root, tree.Doc.Root())
	})

	t.Run("binding declared on a descendant", func(t *testing.T) {
		tree, err := Parse(`<order><v1:items xmlns:v1="v1.snt"/></order>`, binding)
		require.NoError(t, err)
		items := tree.Root.SelectElement("v1:items")
		require.NotNil(t, items)
		assert.Equal(t, "v1.snt", items.NamespaceURI())
	})

	t.Run("inner declaration is dropped", func(t *testing.T) {
		tree, err := Parse(`<?xml version="1.0"?><order/>`, binding)
		require.NoError(t, err)
		require.Len(t, tree.Doc.Child, 1)
		assert.Equal(t, "order", tree.Root.Tag)
	})
}

func TestParseDeclaredCharset(t *testing.T) {
	for _, charset := range []string{"windows-1251", "koi8-r", "ISO-8859-1"} {
		t.Run(charset, func(t *testing.T) {
			text := `<?xml version="1.0" encoding="` + charset + `"?>` +
				`<order><product><productName>Виджет</productName></product></order>`

			tree, err := Parse(text, types.DefaultBinding())
			require.NoError(t, err)

			name := tree.Root.FindElement("product/productName")
			require.NotNil(t, name)
			assert.Equal(t, "Виджет", name.Text())
		})
	}
}

func TestParseDropsCommentsAndInstructions(t *testing.T) {
	text := `<order><!-- batch 7 -->
  <product><?audit ok?><productName>Widget</productName><!-- x --></product>
</order>`

	tree, err := Parse(text, types.DefaultBinding())
	require.NoError(t, err)

	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, tok := range el.Child {
			switch c := tok.(type) {
			case *etree.Comment:
				t.Errorf("comment %q kept in <%s>", c.Data, el.Tag)
			case *etree.ProcInst:
				t.Errorf("instruction %q kept in <%s>", c.Target, el.Tag)
			case *etree.Element:
				walk(c)
			}
		}
	}
	walk(tree.Root)

	assert.Equal(t, "\n  ", tree.Root.Text())
	assert.Equal(t, "Widget", tree.Root.FindElement("product/productName").Text())
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", "   "},
		{"unbalanced", "<order><product></order>"},
		{"unclosed", "<order><product>"},
		{"two roots", "<a/><b/>"},
		{"text beside root", "<a/>trailing"},
		{"not xml", "just some text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Parse(tt.text, types.DefaultBinding())
			assert.Nil(t, tree)

			var malformed *MalformedPayloadError
			require.ErrorAs(t, err, &malformed)
			assert.NotNil(t, malformed.Unwrap())
		})
	}
}
