package parsing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser struct {
	name string
	exts []string
}

func (s stubParser) Name() string         { return s.name }
func (s stubParser) Extensions() []string { return s.exts }
func (s stubParser) Parse(context.Context, string) (Record, error) {
	return Record{Title: s.name, Attributes: map[string]any{}}, nil
}

func TestRegistryLastRegisteredWins(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	first := stubParser{name: "first", exts: []string{".txt", ".md"}}
	second := stubParser{name: "second", exts: []string{".TXT"}}
	reg := NewRegistry(logger, first, second)

	p, ok := reg.Lookup(".txt")
	require.True(t, ok)
	assert.Equal(t, "second", p.Name())

	p, ok = reg.Lookup(".md")
	require.True(t, ok)
	assert.Equal(t, "first", p.Name())

	require.Len(t, reg.Collisions(), 1)
	assert.Equal(t, Collision{Extension: ".txt", Previous: "first", Winner: "second"}, reg.Collisions()[0])
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "extension=.txt")
}

func TestRegistryLookupUnsupported(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil, stubParser{name: "text", exts: []string{"txt"}})

	_, ok := reg.Lookup(".png")
	assert.False(t, ok)

	_, ok = reg.Lookup("")
	assert.False(t, ok)

	p, ok := reg.Lookup("TXT")
	require.True(t, ok)
	assert.Equal(t, "text", p.Name())
	assert.Equal(t, []string{".txt"}, reg.Extensions())
	assert.Empty(t, reg.Collisions())
}

func TestRegistryEmpty(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	assert.Zero(t, reg.Len())
	assert.Empty(t, reg.Extensions())
}

func TestExtractionErrorUnwraps(t *testing.T) {
	t.Parallel()

	cause := errors.New("invalid byte")
	err := Extract("text", "/data/notes/a.txt", cause)

	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, "text", extractErr.Parser)
	assert.ErrorIs(t, err, cause)
	assert.True(t, strings.Contains(err.Error(), "a.txt"))
}
