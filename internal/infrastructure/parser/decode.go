package parser

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
)

const fallbackEncoding = "latin-1"

// decodeText guesses the encoding of raw and returns the decoded text with the encoding name.
// Input that is neither valid UTF-8 nor cleanly decodable with the guessed encoding is read as latin-1.
func decodeText(raw []byte, contentType string) (string, string) {
	if utf8.Valid(raw) {
		return strings.TrimPrefix(string(raw), "\ufeff"), "utf-8"
	}

	// raw is not valid UTF-8, so a declared utf-8 is wrong and the decoder would only
	// substitute U+FFFD. Another guess is kept only when it decodes every byte.
	if enc, name, _ := charset.DetermineEncoding(raw, contentType); enc != nil && name != "utf-8" {
		if out, err := enc.NewDecoder().Bytes(raw); err == nil && !bytes.ContainsRune(out, utf8.RuneError) {
			return strings.TrimPrefix(string(out), "\ufeff"), name
		}
	}

	out, _ := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	return string(out), fallbackEncoding
}

// splitLines splits on any newline convention.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// titleFromFilename turns "my-report_2024.txt" into "My Report 2024".
func titleFromFilename(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	return cases.Title(language.Und).String(stem)
}

// compactLines trims each line and drops blank ones.
func compactLines(text string) string {
	lines := splitLines(text)
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
