package parser

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"NewsPipeline/internal/parsing"
)

// TabularParser flattens delimited text and spreadsheets into one article per file.
type TabularParser struct{}

var _ parsing.Parser = (*TabularParser)(nil)

// NewTabularParser builds the CSV/TSV/XLSX parser.
func NewTabularParser() *TabularParser {
	return &TabularParser{}
}

// Name identifies the parser inside the registry.
func (p *TabularParser) Name() string {
	return NameTabular
}

// Extensions lists the file types this parser reads.
func (p *TabularParser) Extensions() []string {
	return []string{".csv", ".tsv", ".xlsx"}
}

// Parse renders the header and every row as tab-separated lines.
func (p *TabularParser) Parse(ctx context.Context, path string) (parsing.Record, error) {
	if err := ctx.Err(); err != nil {
		return parsing.Record{}, err
	}

	var (
		rec parsing.Record
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rec, err = p.parseWorkbook(path)
	case ".tsv":
		rec, err = p.parseDelimited(path, '\t')
	default:
		rec, err = p.parseDelimited(path, ',')
	}
	if err != nil {
		return parsing.Record{}, parsing.Extract(p.Name(), path, err)
	}

	rec.Title = titleFromFilename(path)
	rec.Attributes["source_filename"] = filepath.Base(path)
	return rec, nil
}

func (p *TabularParser) parseDelimited(path string, comma rune) (parsing.Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return parsing.Record{}, err
	}

	text, encoding := decodeText(raw, "text/csv")
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return parsing.Record{}, fmt.Errorf("read rows: %w", err)
	}

	columns, dataRows := splitHeader(rows)
	return parsing.Record{
		ContentText: renderRows(rows),
		Attributes: map[string]any{
			"detected_encoding": encoding,
			"columns":           columns,
			"row_count":         dataRows,
		},
	}, nil
}

func (p *TabularParser) parseWorkbook(path string) (parsing.Record, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return parsing.Record{}, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	var (
		sections []string
		sheets   []string
		columns  = []string{}
		total    int
	)
	for _, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return parsing.Record{}, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}

		header, dataRows := splitHeader(rows)
		if len(sheets) == 0 {
			columns = header
		}
		sheets = append(sheets, sheet)
		total += dataRows
		sections = append(sections, sheet+"\n"+renderRows(rows))
	}

	return parsing.Record{
		ContentText: strings.Join(sections, "\n\n"),
		Attributes: map[string]any{
			"columns":   columns,
			"row_count": total,
			"sheets":    sheets,
		},
	}, nil
}

func splitHeader(rows [][]string) ([]string, int) {
	if len(rows) == 0 {
		return []string{}, 0
	}
	header := make([]string, len(rows[0]))
	for i, col := range rows[0] {
		header[i] = strings.TrimSpace(col)
	}
	return header, len(rows) - 1
}

func renderRows(rows [][]string) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		line := strings.TrimSpace(strings.Join(row, "\t"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
