package domain

// Document represents a corpus document after text extraction.
// It exists only for the duration of ingestion; once chunked, only the
// derived chunks are persisted.
type Document struct {
	// ID is the unique identifier (file path or URL).
	ID string

	// Title is the human-readable title derived from the filename.
	Title string

	// Content is the full extracted text.
	Content string

	// ContentType identifies the original format (e.g. "application/pdf").
	ContentType string
}

// Chunk represents a bounded span of a document's text, the atomic
// retrievable unit. Chunk IDs are stable across re-ingestion of the same
// document and offset.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the source Document.
	DocumentID string

	// Text is the chunk's text span.
	Text string

	// Position is the ordinal position within the document.
	Position int

	// StartOffset is the byte offset of the span's start in the source text.
	StartOffset int

	// EndOffset is the byte offset just past the span's end.
	EndOffset int
}

// SourceMeta is the fixed source metadata record attached to every indexed
// chunk. It is validated when the chunk enters the vector index.
type SourceMeta struct {
	// DocumentID is the originating document's identifier.
	DocumentID string `json:"document_id"`

	// Title is the originating document's title.
	Title string `json:"title"`

	// ContentType is the originating document's format.
	ContentType string `json:"content_type"`

	// Position is the chunk's ordinal position within the document.
	Position int `json:"position"`

	// StartOffset and EndOffset delimit the chunk's span in the source text.
	StartOffset int `json:"start_offset"`
	EndOffset   int `json:"end_offset"`
}

// IndexEntry is the persisted unit in the vector index: a chunk's text, its
// embedding, and its source metadata.
type IndexEntry struct {
	// ChunkID is the stable chunk identifier; inserting an entry with an
	// existing ChunkID replaces the prior entry.
	ChunkID string

	// Vector is the chunk's embedding. Its length must match the index
	// dimension.
	Vector []float32

	// Text is the chunk's text, retained for context assembly.
	Text string

	// Source is the chunk's source metadata.
	Source SourceMeta
}

// Validate checks that the entry carries the metadata the index requires.
func (e IndexEntry) Validate() error {
	if e.ChunkID == "" {
		return ErrInvalidInput
	}
	if e.Source.DocumentID == "" {
		return ErrInvalidInput
	}
	if e.Source.EndOffset < e.Source.StartOffset {
		return ErrInvalidInput
	}
	return nil
}

// IndexStats describes the state of a vector index.
type IndexStats struct {
	// Entries is the number of indexed chunks.
	Entries int `json:"entries"`

	// Dimension is the embedding vector size.
	Dimension int `json:"dimension"`

	// Sources is the number of distinct source documents.
	Sources int `json:"sources"`
}
