// Package driving defines the inbound ports of the retrieval core,
// consumed by the CLI (ingestion) and by an external UI (queries).
package driving

import (
	"context"

	"github.com/corpusqa/corpusqa-cli/internal/core/domain"
)

// Ingestor runs the document ingestion pipeline over a corpus folder.
type Ingestor interface {
	// Ingest walks the folder, extracts, chunks, embeds, and indexes every
	// supported document, returning a per-run report. A single document's
	// failure never aborts the batch. Cancellation via ctx takes effect
	// between documents; each document's insert is a complete atomic step.
	Ingest(ctx context.Context, folder string, opts domain.IngestOptions) (*domain.IngestionReport, error)
}

// Retriever produces grounded context bundles for queries.
type Retriever interface {
	// Retrieve embeds the query and returns the top passages above the
	// relevance threshold. An empty bundle signals "no grounding
	// available"; it is not an error.
	Retrieve(ctx context.Context, query string, k int, minScore float64) (domain.ContextBundle, error)
}

// Answerer composes grounded answers from context bundles.
type Answerer interface {
	// Answer builds the grounded prompt, invokes the completion service,
	// and attaches source attribution. An empty bundle short-circuits to
	// the fixed fallback without calling the completion service.
	Answer(ctx context.Context, question string, bundle domain.ContextBundle) (*domain.Answer, error)
}
