package driven

import (
	"context"

	"github.com/corpusqa/corpusqa-cli/internal/core/domain"
)

// Extractor transforms a file into a Document with plain-text content.
// Each extractor handles specific file extensions (e.g. PDF, Markdown).
type Extractor interface {
	// SupportedExtensions returns the lowercase file extensions this
	// extractor handles, including the leading dot.
	SupportedExtensions() []string

	// Extract reads the file and returns a Document whose Content holds
	// the extracted plain text. Failures wrap domain.ErrExtractionFailed.
	Extract(ctx context.Context, path string) (*domain.Document, error)
}

// ExtractorRegistry selects an extractor for a file path.
type ExtractorRegistry interface {
	// ExtractorFor returns the extractor registered for the path's
	// extension, or domain.ErrNotFound when the format is unsupported.
	ExtractorFor(path string) (Extractor, error)

	// Extensions returns all supported extensions across registered
	// extractors.
	Extensions() []string
}
