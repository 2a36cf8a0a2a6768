package envelope

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	t.Run("declaration and surrounding text", func(t *testing.T) {
		input := "  <?xml version=\"1.0\" encoding=\"UTF-8\"?>\n\n<env><data><![CDATA[<a>1</a>]]></data></env>\n"

		env, err := Split(input)
		require.NoError(t, err)

		assert.True(t, env.HasDeclaration)
		assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?>`, env.Declaration)
		assert.Equal(t, "<env><data>", env.Prefix)
		assert.Equal(t, "<a>1</a>", env.Payload)
		assert.Equal(t, "</data></env>\n", env.Suffix)
	})

	t.Run("no declaration keeps leading text", func(t *testing.T) {
		input := "\n  <env><![CDATA[\n  <a/>\n]]></env>"

		env, err := Split(input)
		require.NoError(t, err)

		assert.False(t, env.HasDeclaration)
		assert.Empty(t, env.Declaration)
		assert.Equal(t, "\n  <env>", env.Prefix)
		assert.Equal(t, "<a/>", env.InnerXML())
	})

	t.Run("stylesheet instruction is not a declaration", func(t *testing.T) {
		input := "\n <?xml-stylesheet type=\"text/xsl\" href=\"a.xsl\"?>\n\n<env><![CDATA[<a/>]]></env>"

		env, err := Split(input)
		require.NoError(t, err)

		assert.False(t, env.HasDeclaration)
		assert.Equal(t, "\n <?xml-stylesheet type=\"text/xsl\" href=\"a.xsl\"?>\n\n<env>", env.Prefix)
		assert.Equal(t, input, env.Prefix+"<![CDATA["+env.Payload+"]]>"+env.Suffix)
	})

	t.Run("declaration followed directly by close marker", func(t *testing.T) {
		env, err := Split("<?xml?><env><![CDATA[<a/>]]></env>")
		require.NoError(t, err)
		assert.True(t, env.HasDeclaration)
		assert.Equal(t, "<?xml?>", env.Declaration)
	})

	t.Run("greedy span ends at last close marker", func(t *testing.T) {
		input := "<x><![CDATA[one]]><y/><![CDATA[two]]></x>"

		env, err := Split(input)
		require.NoError(t, err)

		assert.Equal(t, "<x>", env.Prefix)
		assert.Equal(t, "one]]><y/><![CDATA[two", env.Payload)
		assert.Equal(t, "</x>", env.Suffix)
	})

	t.Run("missing CDATA", func(t *testing.T) {
		_, err := Split("<?xml version=\"1.0\"?><env><data>plain</data></env>")
		require.Error(t, err)

		var missing *MissingCDATAError
		assert.True(t, errors.As(err, &missing))
	})

	t.Run("unterminated CDATA is missing", func(t *testing.T) {
		_, err := Split("<env><![CDATA[<a/></env>")

		var missing *MissingCDATAError
		assert.ErrorAs(t, err, &missing)
	})
}

func TestReassemble(t *testing.T) {
	t.Run("round trip restores envelope around new payload", func(t *testing.T) {
		input := "<?xml version=\"1.0\"?>\n<env attr=\"x\">\n  <data><![CDATA[<a/>]]></data>\n</env>\n"

		env, err := Split(input)
		require.NoError(t, err)

		out := env.Reassemble("<b/>")
		assert.Equal(t, "<?xml version=\"1.0\"?>\n<env attr=\"x\">\n  <data><![CDATA[\n<b/>\n]]></data>\n</env>\n", out)
	})

	t.Run("without declaration nothing is prepended", func(t *testing.T) {
		env, err := Split("<env><![CDATA[<a/>]]></env>")
		require.NoError(t, err)

		assert.Equal(t, "<env><![CDATA[\n<a/>\n]]></env>", env.Reassemble("<a/>"))
	})
}

func TestWrapCDATA(t *testing.T) {
	assert.Equal(t, "<![CDATA[\n<p/>\n]]>", WrapCDATA("<p/>"))
}
