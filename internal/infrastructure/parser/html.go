package parser

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"NewsPipeline/internal/parsing"
)

const (
	extractorReadability = "readability"
	extractorDocument    = "goquery"
)

// HTMLParser extracts the title and main text of saved web pages.
type HTMLParser struct{}

var _ parsing.Parser = (*HTMLParser)(nil)

// NewHTMLParser builds the HTML parser.
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{}
}

// Name identifies the parser inside the registry.
func (p *HTMLParser) Name() string {
	return NameHTML
}

// Extensions lists the file types this parser reads.
func (p *HTMLParser) Extensions() []string {
	return []string{".html", ".htm"}
}

// Parse prefers readability's main-content text and falls back to the whole body text.
func (p *HTMLParser) Parse(ctx context.Context, path string) (parsing.Record, error) {
	if err := ctx.Err(); err != nil {
		return parsing.Record{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return parsing.Record{}, parsing.Extract(p.Name(), path, err)
	}

	text, encoding := decodeText(raw, "text/html")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return parsing.Record{}, parsing.Extract(p.Name(), path, err)
	}

	attributes := map[string]any{
		"source_filename":   filepath.Base(path),
		"detected_encoding": encoding,
	}
	if lang, ok := doc.Find("html").First().Attr("lang"); ok && strings.TrimSpace(lang) != "" {
		attributes["lang"] = strings.TrimSpace(lang)
	}
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok && strings.TrimSpace(desc) != "" {
		attributes["description"] = strings.TrimSpace(desc)
	}

	title := documentTitle(doc)
	if title == "" {
		title = titleFromFilename(path)
	}

	content, extractor := readableText(text, path)
	if content == "" {
		content = bodyText(doc)
		extractor = extractorDocument
	}
	attributes["extractor"] = extractor

	return parsing.Record{
		Title:       title,
		ContentText: content,
		Attributes:  attributes,
	}, nil
}

func documentTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("head > title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func readableText(documentHTML, path string) (string, string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	pageURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}

	article, err := readability.FromReader(strings.NewReader(documentHTML), pageURL)
	if err != nil {
		return "", ""
	}
	return compactLines(article.TextContent), extractorReadability
}

func bodyText(doc *goquery.Document) string {
	body := doc.Find("body").First()
	body.Find("script, style, noscript, template").Remove()
	return compactLines(body.Text())
}
