// Package plaintext extracts text from plain .txt files.
package plaintext

import (
	"context"
	"fmt"
	"os"

	"github.com/corpusqa/corpusqa-cli/internal/core/domain"
	"github.com/corpusqa/corpusqa-cli/internal/core/ports/driven"
	"github.com/corpusqa/corpusqa-cli/internal/extractors"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".txt"}
}

// Extract reads the file verbatim and cleans the text.
func (e *Extractor) Extract(_ context.Context, path string) (*domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", domain.ErrExtractionFailed, path, err)
	}

	return &domain.Document{
		ID:          path,
		Title:       extractors.TitleFromPath(path),
		Content:     extractors.CleanText(string(raw)),
		ContentType: "text/plain",
	}, nil
}
