// Package chunker splits extracted document text into overlapping
// fixed-size passages.
package chunker

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/corpusqa/corpusqa-cli/internal/core/domain"
)

// DefaultMaxSize is the default maximum chunk length in bytes.
const DefaultMaxSize = 1000

// DefaultOverlap is the default number of overlapping bytes between
// consecutive chunks.
const DefaultOverlap = 200

// boundaryWindow is how far back from a hard cut the chunker looks for a
// sentence or paragraph break.
const boundaryWindow = 200

// sentence terminators considered semantic boundaries, checked together
// with paragraph breaks.
var boundaryMarkers = []string{". ", "! ", "? ", ".\n", "!\n", "?\n", "\n\n"}

// Chunker splits text into overlapping chunks, preferring sentence and
// paragraph boundaries and falling back to hard cuts when a single unit
// exceeds the maximum size.
type Chunker struct {
	maxSize int
	overlap int
}

// New creates a chunker. maxSize must be positive and overlap must satisfy
// 0 <= overlap < maxSize; otherwise domain.ErrInvalidConfiguration.
func New(maxSize, overlap int) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: chunk max size %d", domain.ErrInvalidConfiguration, maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("%w: chunk overlap %d for max size %d", domain.ErrInvalidConfiguration, overlap, maxSize)
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}, nil
}

// MaxSize returns the configured maximum chunk length.
func (c *Chunker) MaxSize() int { return c.maxSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split returns a lazy, restartable sequence of chunks covering text.
// Consecutive chunks share the last overlap bytes of their predecessor.
// Cut points never split a rune: hard cuts and overlap steps back up to
// the nearest rune start. Empty input yields an empty sequence.
//
// Spans tile the source exactly: concatenating each chunk's text with the
// overlap removed reconstructs the input.
func (c *Chunker) Split(docID, text string) iter.Seq[domain.Chunk] {
	return func(yield func(domain.Chunk) bool) {
		if text == "" {
			return
		}

		position := 0
		start := 0
		for start < len(text) {
			end := start + c.maxSize
			if end >= len(text) {
				end = len(text)
			} else if cut := boundaryCut(text, start, end); cut > start {
				end = cut
			} else {
				// Hard cut: never split a rune.
				end = runeStartBefore(text, end)
				if end <= start {
					_, size := utf8.DecodeRuneInString(text[start:])
					end = start + size
				}
			}

			chunk := domain.Chunk{
				ID:          ChunkID(docID, start),
				DocumentID:  docID,
				Text:        text[start:end],
				Position:    position,
				StartOffset: start,
				EndOffset:   end,
			}
			if !yield(chunk) {
				return
			}
			position++

			if end == len(text) {
				return
			}

			next := runeStartBefore(text, end-c.overlap)
			if next <= start {
				// Degenerate boundary placement; force progress by one rune.
				_, size := utf8.DecodeRuneInString(text[start:])
				next = start + size
			}
			start = next
		}
	}
}

// SplitAll materialises the full chunk sequence.
func (c *Chunker) SplitAll(docID, text string) []domain.Chunk {
	var chunks []domain.Chunk
	for chunk := range c.Split(docID, text) {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// boundaryCut finds the rightmost sentence or paragraph break within the
// trailing window of [start, end). Returns 0 when no break exists and the
// hard cut at end stands.
func boundaryCut(text string, start, end int) int {
	searchStart := end - boundaryWindow
	if searchStart < start {
		searchStart = start
	}

	best := 0
	window := text[searchStart:end]
	for _, marker := range boundaryMarkers {
		if i := strings.LastIndex(window, marker); i >= 0 {
			cut := searchStart + i + len(marker)
			if cut > best {
				best = cut
			}
		}
	}
	return best
}

// runeStartBefore returns the largest position <= pos where a rune starts.
func runeStartBefore(text string, pos int) int {
	for pos > 0 && pos < len(text) && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}

// ChunkID derives the stable chunk identifier for a document and byte
// offset. Re-ingesting the same document yields identical IDs, which is
// what makes index updates replace rather than duplicate.
func ChunkID(docID string, startOffset int) string {
	name := docID + "#" + strconv.Itoa(startOffset)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
