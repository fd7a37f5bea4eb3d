package extractors

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpusqa/corpusqa-cli/internal/core/domain"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"collapses whitespace", "a  b\t\tc\n\nd", "a b c d"},
		{"trims edges", "  hello  ", "hello"},
		{"tidies ellipsis runs", "wait.....done", "wait...done"},
		{"tidies quote runs", `he said ""hello""`, `he said "hello"`},
		{"plain text unchanged", "Regular sentence here.", "Regular sentence here."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}

func TestIsMeaningful(t *testing.T) {
	assert.False(t, IsMeaningful(""))
	assert.False(t, IsMeaningful("too short"))
	assert.False(t, IsMeaningful(strings.Repeat("-=|.", 50)), "punctuation noise is not meaningful")
	assert.True(t, IsMeaningful("This is a perfectly ordinary paragraph of English prose, long enough to index."))
}

func TestTitleFromPath(t *testing.T) {
	assert.Equal(t, "margin pledge charges", TitleFromPath("/docs/margin_pledge-charges.pdf"))
	assert.Equal(t, "readme", TitleFromPath("readme"))
}

type fakeExtractor struct {
	exts []string
}

func (f *fakeExtractor) SupportedExtensions() []string { return f.exts }

func (f *fakeExtractor) Extract(_ context.Context, path string) (*domain.Document, error) {
	return &domain.Document{ID: path}, nil
}

func TestRegistry_ExtractorFor(t *testing.T) {
	txt := &fakeExtractor{exts: []string{".txt"}}
	md := &fakeExtractor{exts: []string{".md", ".markdown"}}
	registry := NewRegistry(txt, md)

	e, err := registry.ExtractorFor("/corpus/notes.md")
	require.NoError(t, err)
	assert.Same(t, md, e)

	// Extension matching is case-insensitive
	e, err = registry.ExtractorFor("/corpus/NOTES.TXT")
	require.NoError(t, err)
	assert.Same(t, txt, e)
}

func TestRegistry_UnsupportedExtension(t *testing.T) {
	registry := NewRegistry(&fakeExtractor{exts: []string{".txt"}})

	_, err := registry.ExtractorFor("/corpus/image.png")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_ExtensionsSorted(t *testing.T) {
	registry := NewRegistry(
		&fakeExtractor{exts: []string{".txt"}},
		&fakeExtractor{exts: []string{".md", ".markdown"}},
	)

	assert.Equal(t, []string{".markdown", ".md", ".txt"}, registry.Extensions())
}
