package driven

import (
	"context"

	"github.com/corpusqa/corpusqa-cli/internal/core/domain"
)

// VectorIndex owns the persistent store of (vector, passage, metadata)
// entries and provides cosine-similarity search over them.
//
// Implementations follow a single-writer/multi-reader discipline: searches
// may run concurrently with each other, writes are mutually exclusive, and
// Persist/Load are serialised against everything because they touch durable
// state. Persistence is atomic: a failed write leaves the prior valid state
// intact, and a concurrent reader never observes a partial file.
type VectorIndex interface {
	// Insert adds entries to the index and returns the number of entries
	// that did not previously exist. Insertion is idempotent per chunk ID:
	// an entry whose ChunkID is already indexed replaces the prior entry in
	// place and does not count towards the returned total.
	//
	// Returns domain.ErrDimensionMismatch if any vector's length differs
	// from the index dimension; no entry from the batch is applied then.
	Insert(ctx context.Context, entries []domain.IndexEntry) (int, error)

	// Search returns up to k entries ordered by descending cosine
	// similarity to the query vector, stable on ties by insertion order.
	// Entries scoring below minScore are excluded even when among the top
	// k. Searching an empty index returns an empty slice, not an error.
	Search(ctx context.Context, vector []float32, k int, minScore float64) ([]SearchHit, error)

	// Persist writes the index state to durable storage and clears the
	// dirty flag. A no-op when the index is clean.
	Persist(ctx context.Context) error

	// Load reconstructs index state from durable storage, replacing any
	// in-memory entries. Returns domain.ErrCorruptIndex when the stored
	// dimensionality does not match the configured embedding dimension or
	// the stored bytes cannot be decoded. A missing store is not an error;
	// it loads an empty index.
	Load(ctx context.Context) error

	// Clear removes all entries and marks the index dirty. Irreversible
	// without a backup.
	Clear(ctx context.Context) error

	// Stats reports entry count, dimension, and distinct sources.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Close releases resources, persisting dirty state first.
	Close() error
}

// SearchHit is one similarity search result.
type SearchHit struct {
	// Entry is the matched index entry.
	Entry domain.IndexEntry

	// Score is the cosine similarity in [-1, 1].
	Score float64
}
