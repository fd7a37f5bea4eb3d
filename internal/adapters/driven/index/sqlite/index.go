// Package sqlite provides a vector index persisted in a SQLite database.
//
// Unlike the file backend, every insert is committed transactionally, so
// durability does not wait for an explicit Persist. Similarity is still
// computed in process; SQLite only stores the entries.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	indexfile "github.com/corpusqa/corpusqa-cli/internal/adapters/driven/index/file"
	"github.com/corpusqa/corpusqa-cli/internal/adapters/driven/index/sqlite/migrations"
	"github.com/corpusqa/corpusqa-cli/internal/core/domain"
	"github.com/corpusqa/corpusqa-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// dimensionKey is the index_meta row recording the embedding dimension.
const dimensionKey = "dimension"

// Index is a SQLite-backed vector index.
type Index struct {
	mu        sync.RWMutex
	db        *sql.DB
	path      string
	dimension int
}

// New opens (or creates) a SQLite index at path with the given fixed
// dimension. An existing database whose recorded dimension differs fails
// with domain.ErrCorruptIndex.
func New(path string, dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: index dimension %d", domain.ErrInvalidConfiguration, dimension)
	}
	if path == "" {
		return nil, fmt.Errorf("%w: index path is required", domain.ErrInvalidConfiguration)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	// WAL mode lets searches proceed while an ingestion commit is in flight.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	idx := &Index{
		db:        db,
		path:      path,
		dimension: dimension,
	}

	if err := idx.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := idx.checkDimension(); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

// Path returns the database file path.
func (idx *Index) Path() string {
	return idx.path
}

// migrate applies all embedded migration files in name order.
func (idx *Index) migrate(fsys embed.FS) error {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("listing migrations: %w", err)
	}
	sort.Strings(files)

	for _, name := range files {
		script, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := idx.db.Exec(string(script)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
	}
	return nil
}

// checkDimension records the configured dimension on first open and
// verifies it on every subsequent open.
func (idx *Index) checkDimension() error {
	var stored string
	err := idx.db.QueryRow("SELECT value FROM index_meta WHERE key = ?", dimensionKey).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		_, err = idx.db.Exec("INSERT INTO index_meta (key, value) VALUES (?, ?)",
			dimensionKey, strconv.Itoa(idx.dimension))
		if err != nil {
			return fmt.Errorf("recording dimension: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("reading dimension: %w", err)
	}

	dim, err := strconv.Atoi(stored)
	if err != nil || dim != idx.dimension {
		return fmt.Errorf("%w: stored dimension %q does not match configured dimension %d",
			domain.ErrCorruptIndex, stored, idx.dimension)
	}
	return nil
}

// Insert adds or replaces entries inside a single transaction and returns
// the number of entries that were new. Upserts preserve the row's original
// rowid, which keeps search tie-breaking stable across re-ingestion.
func (idx *Index) Insert(ctx context.Context, entries []domain.IndexEntry) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("entry %s: %w", e.ChunkID, err)
		}
		if len(e.Vector) != idx.dimension {
			return 0, fmt.Errorf("%w: entry %s has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, e.ChunkID, len(e.Vector), idx.dimension)
		}
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var before int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&before); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (chunk_id, vector, text, source)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			vector = excluded.vector,
			text = excluded.text,
			source = excluded.source
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		sourceJSON, err := json.Marshal(e.Source)
		if err != nil {
			return 0, fmt.Errorf("marshalling source metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, e.ChunkID, float32SliceToBytes(e.Vector), e.Text, string(sourceJSON)); err != nil {
			return 0, fmt.Errorf("saving entry %s: %w", e.ChunkID, err)
		}
	}

	var after int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&after); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return after - before, nil
}

// Search scans all entries in insertion order and scores them in process.
func (idx *Index) Search(ctx context.Context, vector []float32, k int, minScore float64) ([]driven.SearchHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k <= 0 {
		return []driven.SearchHit{}, nil
	}
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(vector), idx.dimension)
	}

	rows, err := idx.db.QueryContext(ctx, `
		SELECT chunk_id, vector, text, source
		FROM entries
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	hits := []driven.SearchHit{}
	for rows.Next() {
		var entry domain.IndexEntry
		var vectorBlob []byte
		var sourceJSON string
		if err := rows.Scan(&entry.ChunkID, &vectorBlob, &entry.Text, &sourceJSON); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		if err := json.Unmarshal([]byte(sourceJSON), &entry.Source); err != nil {
			return nil, fmt.Errorf("unmarshalling source metadata: %w", err)
		}
		entry.Vector = bytesToFloat32Slice(vectorBlob)

		score := indexfile.CosineSimilarity(vector, entry.Vector)
		if score < minScore {
			continue
		}
		hits = append(hits, driven.SearchHit{Entry: entry, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Persist is a no-op: inserts commit transactionally, so durable state is
// always current.
func (idx *Index) Persist(_ context.Context) error {
	return nil
}

// Load verifies the stored dimension. Entries stay on disk and are read
// per search.
func (idx *Index) Load(_ context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.checkDimension()
}

// Clear removes all entries.
func (idx *Index) Clear(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, err := idx.db.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}
	return nil
}

// Stats reports entry count, dimension, and distinct sources.
func (idx *Index) Stats(ctx context.Context) (domain.IndexStats, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var entries, sources int
	if err := idx.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&entries); err != nil {
		return domain.IndexStats{}, fmt.Errorf("counting entries: %w", err)
	}
	if err := idx.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT json_extract(source, '$.document_id')) FROM entries").Scan(&sources); err != nil {
		return domain.IndexStats{}, fmt.Errorf("counting sources: %w", err)
	}

	return domain.IndexStats{
		Entries:   entries,
		Dimension: idx.dimension,
		Sources:   sources,
	}, nil
}

// Close closes the database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// float32SliceToBytes converts a []float32 to a little-endian byte slice
// for BLOB storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
