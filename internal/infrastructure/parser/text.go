package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"NewsPipeline/internal/parsing"
)

const headingPrefix = "# "

// TextParser handles plain text and Markdown files.
type TextParser struct{}

var _ parsing.Parser = (*TextParser)(nil)

// NewTextParser builds the text/markdown parser.
func NewTextParser() *TextParser {
	return &TextParser{}
}

// Name identifies the parser inside the registry.
func (p *TextParser) Name() string {
	return NameText
}

// Extensions lists the file types this parser reads.
func (p *TextParser) Extensions() []string {
	return []string{".txt", ".md"}
}

// Parse reads the file, detects its encoding and splits off a leading "# " heading as the title.
// Without a heading the title is derived from the filename.
func (p *TextParser) Parse(ctx context.Context, path string) (parsing.Record, error) {
	if err := ctx.Err(); err != nil {
		return parsing.Record{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return parsing.Record{}, parsing.Extract(p.Name(), path, err)
	}

	text, encoding := decodeText(raw, "text/plain")
	lines := splitLines(text)

	var title string
	start := 0
	if len(lines) > 0 && strings.HasPrefix(lines[0], headingPrefix) {
		title = strings.TrimSpace(lines[0][len(headingPrefix):])
		start = 1
	} else {
		title = titleFromFilename(path)
	}

	return parsing.Record{
		Title:       title,
		ContentText: strings.TrimSpace(strings.Join(lines[start:], "\n")),
		Attributes: map[string]any{
			"source_filename":   filepath.Base(path),
			"detected_encoding": encoding,
		},
	}, nil
}
