package parser

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestTabularParserCSV(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "city_budget.csv", []byte("item,amount\nroads,100\n\"parks, trails\",40\n"))

	rec, err := NewTabularParser().Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "City Budget", rec.Title)
	assert.Equal(t, "item\tamount\nroads\t100\nparks, trails\t40", rec.ContentText)
	assert.Equal(t, []string{"item", "amount"}, rec.Attributes["columns"])
	assert.Equal(t, 2, rec.Attributes["row_count"])
	assert.Equal(t, "city_budget.csv", rec.Attributes["source_filename"])
}

func TestTabularParserTSV(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "scores.tsv", []byte("team\tpoints\nnorth\t3\n"))

	rec, err := NewTabularParser().Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "team\tpoints\nnorth\t3", rec.ContentText)
	assert.Equal(t, 1, rec.Attributes["row_count"])
}

func TestTabularParserWorkbook(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "poll-results.xlsx")

	book := excelize.NewFile()
	rows := [][]string{{"region", "yes"}, {"east", "52"}, {"west", "47"}}
	for r, row := range rows {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, book.SetCellValue("Sheet1", cell, val))
		}
	}
	require.NoError(t, book.SaveAs(path))
	require.NoError(t, book.Close())

	rec, err := NewTabularParser().Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Poll Results", rec.Title)
	assert.Equal(t, "Sheet1\nregion\tyes\neast\t52\nwest\t47", rec.ContentText)
	assert.Equal(t, []string{"region", "yes"}, rec.Attributes["columns"])
	assert.Equal(t, 2, rec.Attributes["row_count"])
	assert.Equal(t, []string{"Sheet1"}, rec.Attributes["sheets"])
}

func TestTabularParserBrokenWorkbook(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "broken.xlsx", []byte("not a zip archive"))

	_, err := NewTabularParser().Parse(context.Background(), path)
	require.Error(t, err)
}
