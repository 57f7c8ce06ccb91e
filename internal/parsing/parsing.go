package parsing

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Record is the canonical output every parser produces.
// Title, ContentText and Attributes are always populated, possibly empty.
type Record struct {
	Title       string
	ContentText string
	Attributes  map[string]any
	// Format overrides the extension-derived format tag when set.
	Format string
}

// Parser captures a single extraction strategy (text, HTML, tabular, etc.).
type Parser interface {
	Name() string
	// Extensions lists lowercase extensions with the leading dot.
	Extensions() []string
	Parse(ctx context.Context, path string) (Record, error)
}

// ExtractionError reports that a parser could not produce a record for a file.
type ExtractionError struct {
	Parser string
	Path   string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s parser: extract %s: %v", e.Parser, filepath.Base(e.Path), e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extract wraps err as an ExtractionError for the named parser.
func Extract(parser, path string, err error) error {
	return &ExtractionError{Parser: parser, Path: path, Err: err}
}

// NormalizeExtension lowercases ext and guarantees a leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
