// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// Embedder generates vector embeddings from text. It is a pure function of
// text to vector and holds no state.
//
// The dimension is fixed per deployment and must match the vector index
// configuration; a mismatch is a fatal configuration error at startup, not a
// per-call error.
//
// Implementations may include:
//   - Gemini (text-embedding-004)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	// Callers supply timeouts through ctx; a deadline hit surfaces as
	// domain.ErrExternalCallTimeout and is not retried internally.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedQuery generates an embedding for a search query. Providers that
	// distinguish document and query embeddings (Gemini task types) use the
	// query variant here; others fall back to Embed.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making one trivial embed
	// call. Used by verify-only ingestion runs and at startup.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
