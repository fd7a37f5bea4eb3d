package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpusqa/corpusqa-cli/internal/core/domain"
)

// newTestIndex creates a 3-dimensional index in a temp directory.
func newTestIndex(t *testing.T) (*Index, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := New(path, 3)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx, path
}

func entry(id, docID string, vector []float32) domain.IndexEntry {
	return domain.IndexEntry{
		ChunkID: id,
		Vector:  vector,
		Text:    "text for " + id,
		Source: domain.SourceMeta{
			DocumentID: docID,
			Title:      docID,
		},
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New("", 3)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = New(filepath.Join(t.TempDir(), "index.db"), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestNew_RejectsDimensionChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := New(path, 3)
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	_, err = New(path, 4)

	assert.ErrorIs(t, err, domain.ErrCorruptIndex)
}

func TestInsert_CountsOnlyNewEntries(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	added, err := idx.Insert(ctx, []domain.IndexEntry{
		entry("c1", "doc1", []float32{1, 0, 0}),
		entry("c2", "doc1", []float32{0, 1, 0}),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = idx.Insert(ctx, []domain.IndexEntry{
		entry("c1", "doc1", []float32{1, 0, 0}),
		entry("c3", "doc2", []float32{0, 0, 1}),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Entries)
	assert.Equal(t, 2, stats.Sources)
}

func TestInsert_DimensionMismatchRejectsWholeBatch(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Insert(ctx, []domain.IndexEntry{
		entry("c1", "doc1", []float32{1, 0, 0}),
		entry("c2", "doc1", []float32{1, 0}),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
}

func TestSearch_OrdersByDescendingSimilarity(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Insert(ctx, []domain.IndexEntry{
		entry("far", "doc1", []float32{0, 1, 0}),
		entry("near", "doc1", []float32{1, 0.1, 0}),
		entry("exact", "doc2", []float32{1, 0, 0}),
	})
	require.NoError(t, err)

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 10, -1)

	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "exact", hits[0].Entry.ChunkID)
	assert.Equal(t, "near", hits[1].Entry.ChunkID)
	assert.Equal(t, "far", hits[2].Entry.ChunkID)
}

func TestSearch_MinScoreAndK(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Insert(ctx, []domain.IndexEntry{
		entry("aligned", "doc1", []float32{1, 0, 0}),
		entry("close", "doc1", []float32{1, 0.2, 0}),
		entry("orthogonal", "doc1", []float32{0, 1, 0}),
	})
	require.NoError(t, err)

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 1, 0.5)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "aligned", hits[0].Entry.ChunkID)
}

func TestSearch_StableTieOrderAcrossReplacement(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Insert(ctx, []domain.IndexEntry{
		entry("first", "doc1", []float32{1, 0, 0}),
		entry("second", "doc1", []float32{1, 0, 0}),
	})
	require.NoError(t, err)

	// Upsert keeps the original rowid, so "first" must stay first.
	_, err = idx.Insert(ctx, []domain.IndexEntry{
		entry("first", "doc1", []float32{1, 0, 0}),
	})
	require.NoError(t, err)

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 10, -1)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "first", hits[0].Entry.ChunkID)
	assert.Equal(t, "second", hits[1].Entry.ChunkID)
}

func TestSearch_EmptyIndex(t *testing.T) {
	idx, _ := newTestIndex(t)

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 5, 0)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_RoundTripsSourceMetadata(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	e := entry("c1", "docs/faq.md", []float32{1, 0, 0})
	e.Source.ContentType = "text/markdown"
	e.Source.Position = 4
	e.Source.StartOffset = 3200
	e.Source.EndOffset = 4100

	_, err := idx.Insert(ctx, []domain.IndexEntry{e})
	require.NoError(t, err)

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 1, -1)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, e.Source, hits[0].Entry.Source)
	assert.Equal(t, e.Vector, hits[0].Entry.Vector)
	assert.Equal(t, e.Text, hits[0].Entry.Text)
}

func TestReopen_KeepsEntries(t *testing.T) {
	idx, path := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Insert(ctx, []domain.IndexEntry{entry("c1", "doc1", []float32{1, 0, 0})})
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	reopened, err := New(path, 3)
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.Load(ctx))

	stats, err := reopened.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)
}

func TestClear_RemovesEverything(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Insert(ctx, []domain.IndexEntry{entry("c1", "doc1", []float32{1, 0, 0})})
	require.NoError(t, err)

	require.NoError(t, idx.Clear(ctx))

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
}

func TestVectorBlobRoundTrip(t *testing.T) {
	vectors := [][]float32{
		nil,
		{0},
		{1.5, -2.25, 3.125},
		{0.1, 0.2, 0.3, 0.4},
	}

	for _, v := range vectors {
		assert.Equal(t, v, bytesToFloat32Slice(float32SliceToBytes(v)))
	}
}
