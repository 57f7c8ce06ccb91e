package parser

import (
	"fmt"
	"strings"

	"NewsPipeline/internal/parsing"
)

// Names of the built-in parsers.
const (
	NameText    = "text"
	NameHTML    = "html"
	NameTabular = "tabular"
)

// Known lists built-in parser names in registration order.
func Known() []string {
	return []string{NameText, NameHTML, NameTabular}
}

// Defaults returns every built-in parser.
func Defaults() []parsing.Parser {
	return []parsing.Parser{NewTextParser(), NewHTMLParser(), NewTabularParser()}
}

// Select returns the named parsers in the given order; no names means Defaults.
func Select(names []string) ([]parsing.Parser, error) {
	if len(names) == 0 {
		return Defaults(), nil
	}

	selected := make([]parsing.Parser, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case NameText:
			selected = append(selected, NewTextParser())
		case NameHTML:
			selected = append(selected, NewHTMLParser())
		case NameTabular:
			selected = append(selected, NewTabularParser())
		default:
			return nil, fmt.Errorf("unknown parser %q (known: %s)", name, strings.Join(Known(), ", "))
		}
	}
	return selected, nil
}
