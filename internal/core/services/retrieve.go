package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/corpusqa/corpusqa-cli/internal/core/domain"
	"github.com/corpusqa/corpusqa-cli/internal/core/ports/driven"
	"github.com/corpusqa/corpusqa-cli/internal/core/ports/driving"
	"github.com/corpusqa/corpusqa-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// RetrievalService embeds queries and selects grounding passages from the
// vector index.
type RetrievalService struct {
	embedder driven.Embedder
	index    driven.VectorIndex
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(embedder driven.Embedder, index driven.VectorIndex) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		index:    index,
	}
}

// Retrieve embeds the query and returns the top passages above the
// relevance threshold, ordered by descending similarity. An empty result is
// not an error; it signals that no grounding is available.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, k int, minScore float64) (domain.ContextBundle, error) {
	bundle := domain.ContextBundle{Query: query}

	if strings.TrimSpace(query) == "" {
		return bundle, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return bundle, fmt.Errorf("%w: embed query: %w", domain.ErrEmbeddingFailed, err)
	}

	hits, err := s.index.Search(ctx, vector, k, minScore)
	if err != nil {
		return bundle, fmt.Errorf("search index: %w", err)
	}

	bundle.Passages = make([]domain.RetrievedPassage, len(hits))
	for i, hit := range hits {
		bundle.Passages[i] = domain.RetrievedPassage{
			ChunkID: hit.Entry.ChunkID,
			Text:    hit.Entry.Text,
			Source:  hit.Entry.Source,
			Score:   hit.Score,
		}
	}

	logger.Debug("Retrieved %d passages for query (k=%d, min_score=%.2f)", len(hits), k, minScore)

	return bundle, nil
}
