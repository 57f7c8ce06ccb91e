package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLParserExtractsTitleAndText(t *testing.T) {
	t.Parallel()

	page := `<!doctype html>
<html lang="en">
<head>
  <title>Harbour Expansion Approved</title>
  <meta name="description" content="Council vote on the harbour plan">
  <style>body { color: red; }</style>
</head>
<body>
  <h1>Harbour Expansion Approved</h1>
  <p>The city council approved the harbour expansion on Tuesday after a lengthy debate about costs.</p>
  <script>console.log("tracking")</script>
</body>
</html>`
	path := writeFile(t, t.TempDir(), "harbour.html", []byte(page))

	rec, err := NewHTMLParser().Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Harbour Expansion Approved", rec.Title)
	assert.Contains(t, rec.ContentText, "approved the harbour expansion")
	assert.NotContains(t, rec.ContentText, "tracking", "content must not include scripts")
	assert.Equal(t, "en", rec.Attributes["lang"])
	assert.Equal(t, "Council vote on the harbour plan", rec.Attributes["description"])
	assert.Contains(t, rec.Attributes, "extractor")
}

func TestHTMLParserFallsBackToFilenameTitle(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "press-release.htm", []byte("<html><body><p>Short note.</p></body></html>"))

	rec, err := NewHTMLParser().Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Press Release", rec.Title)
	assert.Contains(t, rec.ContentText, "Short note.")
}

func TestHTMLParserWrongCharsetDeclaration(t *testing.T) {
	t.Parallel()

	page := "<html><head><meta charset=\"utf-8\"><title>Caf\xe9 Central</title></head>" +
		"<body><p>Caf\xe9 cr\xe8me served daily.</p></body></html>"
	path := writeFile(t, t.TempDir(), "cafe.html", []byte(page))

	rec, err := NewHTMLParser().Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Café Central", rec.Title)
	assert.Contains(t, rec.ContentText, "Café crème")
	assert.Equal(t, fallbackEncoding, rec.Attributes["detected_encoding"])
}
