// Package file provides a vector index held in memory and persisted
// atomically to a single snapshot file.
package file

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/corpusqa/corpusqa-cli/internal/core/domain"
	"github.com/corpusqa/corpusqa-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// snapshotMagic identifies a corpusqa index snapshot.
const snapshotMagic = "corpusqa-index"

// snapshotVersion is the on-disk format version.
const snapshotVersion = 1

// snapshot is the durable representation: the embedding dimension plus the
// full set of index entries in insertion order.
type snapshot struct {
	Magic     string
	Version   int
	Dimension int
	Entries   []domain.IndexEntry
}

// Index is an in-memory vector index with file persistence.
//
// Readers (Search, Stats) share a read lock; writers (Insert, Clear) take
// the write lock; Persist and Load also take the write lock so durable
// state is never touched concurrently with anything else.
type Index struct {
	mu        sync.RWMutex
	path      string
	dimension int
	entries   []domain.IndexEntry
	byID      map[string]int // chunk ID -> position in entries
	dirty     bool
}

// New creates an index persisting to path with the given fixed dimension.
func New(path string, dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: index dimension %d", domain.ErrInvalidConfiguration, dimension)
	}
	if path == "" {
		return nil, fmt.Errorf("%w: index path is required", domain.ErrInvalidConfiguration)
	}
	return &Index{
		path:      path,
		dimension: dimension,
		byID:      make(map[string]int),
	}, nil
}

// Path returns the snapshot file location.
func (idx *Index) Path() string {
	return idx.path
}

// Insert adds or replaces entries. Returns the number of entries that were
// new to the index; replacements keep their original insertion slot so
// search tie-breaking stays stable across re-ingestion.
func (idx *Index) Insert(_ context.Context, entries []domain.IndexEntry) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	// Validate the whole batch before applying any of it.
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("entry %s: %w", e.ChunkID, err)
		}
		if len(e.Vector) != idx.dimension {
			return 0, fmt.Errorf("%w: entry %s has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, e.ChunkID, len(e.Vector), idx.dimension)
		}
	}

	added := 0
	for _, e := range entries {
		if pos, ok := idx.byID[e.ChunkID]; ok {
			idx.entries[pos] = e
			continue
		}
		idx.byID[e.ChunkID] = len(idx.entries)
		idx.entries = append(idx.entries, e)
		added++
	}

	if len(entries) > 0 {
		idx.dirty = true
	}
	return added, nil
}

// Search returns the top k entries by cosine similarity, descending, stable
// on ties by insertion order, excluding scores below minScore.
func (idx *Index) Search(_ context.Context, vector []float32, k int, minScore float64) ([]driven.SearchHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.entries) == 0 || k <= 0 {
		return []driven.SearchHit{}, nil
	}
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(vector), idx.dimension)
	}

	hits := make([]driven.SearchHit, 0, len(idx.entries))
	for _, e := range idx.entries {
		score := CosineSimilarity(vector, e.Vector)
		if score < minScore {
			continue
		}
		hits = append(hits, driven.SearchHit{Entry: e, Score: score})
	}

	// entries is in insertion order, so a stable sort keeps ties stable.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Persist writes the snapshot atomically: the new state is written to a
// temp file in the same directory and renamed over the old one, so a crash
// or failed write leaves the prior valid snapshot intact.
func (idx *Index) Persist(_ context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !idx.dirty {
		return nil
	}

	dir := filepath.Dir(idx.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	snap := snapshot{
		Magic:     snapshotMagic,
		Version:   snapshotVersion,
		Dimension: idx.dimension,
		Entries:   idx.entries,
	}
	if err := gob.NewEncoder(tmp).Encode(&snap); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), idx.path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	idx.dirty = false
	return nil
}

// Load replaces in-memory state with the persisted snapshot. A missing
// snapshot loads an empty index.
func (idx *Index) Load(_ context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	f, err := os.Open(idx.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			idx.entries = nil
			idx.byID = make(map[string]int)
			idx.dirty = false
			return nil
		}
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("%w: decoding snapshot %s: %v", domain.ErrCorruptIndex, idx.path, err)
	}
	if snap.Magic != snapshotMagic || snap.Version != snapshotVersion {
		return fmt.Errorf("%w: %s is not a recognised index snapshot", domain.ErrCorruptIndex, idx.path)
	}
	if snap.Dimension != idx.dimension {
		return fmt.Errorf("%w: snapshot dimension %d does not match configured dimension %d",
			domain.ErrCorruptIndex, snap.Dimension, idx.dimension)
	}

	byID := make(map[string]int, len(snap.Entries))
	for i, e := range snap.Entries {
		if len(e.Vector) != snap.Dimension {
			return fmt.Errorf("%w: entry %s has %d dimensions", domain.ErrCorruptIndex, e.ChunkID, len(e.Vector))
		}
		byID[e.ChunkID] = i
	}

	idx.entries = snap.Entries
	idx.byID = byID
	idx.dirty = false
	return nil
}

// Clear removes all entries. Irreversible without a backup.
func (idx *Index) Clear(_ context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.entries = nil
	idx.byID = make(map[string]int)
	idx.dirty = true
	return nil
}

// Stats reports entry count, dimension, and distinct sources.
func (idx *Index) Stats(_ context.Context) (domain.IndexStats, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	sources := make(map[string]bool)
	for _, e := range idx.entries {
		sources[e.Source.DocumentID] = true
	}
	return domain.IndexStats{
		Entries:   len(idx.entries),
		Dimension: idx.dimension,
		Sources:   len(sources),
	}, nil
}

// Close persists dirty state and releases the index.
func (idx *Index) Close() error {
	return idx.Persist(context.Background())
}

// CosineSimilarity computes the cosine of the angle between a and b in
// float64 precision. Zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
