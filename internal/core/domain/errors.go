package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfiguration indicates bad chunking sizes or an embedding
	// dimension mismatch detected at startup. Fatal; never retried.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrDimensionMismatch indicates an inserted vector's length differs
	// from the index's fixed dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCorruptIndex indicates persisted index state could not be loaded,
	// typically because the stored dimensionality does not match the
	// configured embedding dimension. Fatal for the process; the corpus
	// must be re-ingested or restored from backup.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrExtractionFailed indicates a document's text could not be
	// extracted. Recovered locally: the document is skipped and recorded
	// in the ingestion report.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrEmbeddingFailed indicates embedding generation failed for a
	// document's chunks. Recovered locally like ErrExtractionFailed.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrExternalCallTimeout indicates an embedding or completion call
	// exceeded its caller-supplied timeout. Not retried internally.
	ErrExternalCallTimeout = errors.New("external call timed out")

	// ErrAnswerGenerationFailed indicates the completion service failed
	// (timeout, quota, malformed response). The query fails whole; no
	// partial answer is returned.
	ErrAnswerGenerationFailed = errors.New("answer generation failed")

	// ErrEmbedderUnavailable indicates no embedding provider is configured.
	ErrEmbedderUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates no completion provider is configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
