package source_test

import (
	"os"
	"strings"
	"testing"

	"github.com/c360studio/ontokg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_PlainText(t *testing.T) {
	doc, err := source.Load("testdata/plain.txt")
	require.NoError(t, err)

	assert.Equal(t, source.FormatText, doc.Format)
	assert.Equal(t, "testdata/plain.txt", doc.Path)
	assert.Equal(t, "Alice owns a dog.\nThe dog is called Rex.\n", doc.Content)
	assert.Empty(t, doc.Title)
	assert.True(t, strings.HasPrefix(doc.ID, "doc.plain."), doc.ID)
}

func TestLoad_Markdown(t *testing.T) {
	doc, err := source.Load("testdata/notes.md")
	require.NoError(t, err)

	assert.Equal(t, source.FormatMarkdown, doc.Format)
	assert.Equal(t, "Household", doc.Title)
	assert.Contains(t, doc.Content, "Alice lives with Rex.")
}

func TestLoad_HTML(t *testing.T) {
	doc, err := source.Load("testdata/article.html")
	require.NoError(t, err)

	assert.Equal(t, source.FormatHTML, doc.Format)
	assert.Equal(t, "Pets and their Owners", doc.Title)
	assert.Contains(t, doc.Content, "# Pets")
	assert.Contains(t, doc.Content, "Alice owns a **dog** named Rex.")
	assert.NotContains(t, doc.Content, "tracking")
	assert.NotContains(t, doc.Content, "Home")
	assert.NotContains(t, doc.Content, "Copyright")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := source.Load("testdata/missing.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_Read(t *testing.T) {
	l := source.NewLoader()

	t.Run("id is stable for identical content", func(t *testing.T) {
		a, err := l.Read(strings.NewReader("same"), "Some File.txt", source.FormatText)
		require.NoError(t, err)
		b, err := l.Read(strings.NewReader("same"), "Some File.txt", source.FormatText)
		require.NoError(t, err)
		c, err := l.Read(strings.NewReader("other"), "Some File.txt", source.FormatText)
		require.NoError(t, err)

		assert.Equal(t, a.ID, b.ID)
		assert.NotEqual(t, a.ID, c.ID)
		assert.True(t, strings.HasPrefix(a.ID, "doc.some-file."), a.ID)
	})

	t.Run("html title falls back to first heading", func(t *testing.T) {
		doc, err := l.Read(strings.NewReader("<h2>Only heading</h2><p>Body.</p>"), "x.html", source.FormatHTML)
		require.NoError(t, err)
		assert.Equal(t, "Only heading", doc.Title)
	})

	t.Run("empty format reads as text", func(t *testing.T) {
		doc, err := l.Read(strings.NewReader("hi"), "-", "")
		require.NoError(t, err)
		assert.Equal(t, source.FormatText, doc.Format)
	})

	t.Run("invalid utf-8 is rejected", func(t *testing.T) {
		_, err := l.Read(strings.NewReader("\xff\xfe"), "bin", source.FormatText)
		assert.Error(t, err)
	})

	t.Run("unknown format is rejected", func(t *testing.T) {
		_, err := l.Read(strings.NewReader("x"), "x", source.Format("pdf"))
		assert.Error(t, err)
	})
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]source.Format{
		"a.md":       source.FormatMarkdown,
		"a.MARKDOWN": source.FormatMarkdown,
		"a.html":     source.FormatHTML,
		"a.htm":      source.FormatHTML,
		"a.txt":      source.FormatText,
		"README":     source.FormatText,
	}
	for path, want := range tests {
		assert.Equal(t, want, source.FormatFromPath(path), path)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := source.ParseFormat(" MD ")
	require.NoError(t, err)
	assert.Equal(t, source.FormatMarkdown, f)

	_, err = source.ParseFormat("docx")
	assert.Error(t, err)
}
