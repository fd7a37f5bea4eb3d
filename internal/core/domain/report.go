package domain

// IngestOptions configures an ingestion run.
type IngestOptions struct {
	// ClearExisting wipes the index before ingesting.
	ClearExisting bool

	// VerifyOnly validates configuration and embedding connectivity
	// without touching the index.
	VerifyOnly bool
}

// IngestError records a single document's failure during ingestion.
// Failures are isolated per document; they never abort the batch.
type IngestError struct {
	// DocumentID identifies the failed document.
	DocumentID string `json:"document_id"`

	// Stage is the pipeline stage that failed ("extract", "embed" or
	// "insert").
	Stage string `json:"stage"`

	// Message is the underlying error text.
	Message string `json:"message"`
}

// IngestionReport summarises an ingestion run.
type IngestionReport struct {
	// DocumentsProcessed is the number of documents fully ingested.
	DocumentsProcessed int `json:"documents_processed"`

	// DocumentsSkipped is the number of documents passed over because they
	// contained no meaningful text after extraction and cleaning.
	DocumentsSkipped int `json:"documents_skipped"`

	// ChunksAdded is the number of chunks newly inserted into the index.
	// Re-ingesting unchanged documents replaces entries in place, so the
	// second run of an identical corpus reports zero here.
	ChunksAdded int `json:"chunks_added"`

	// ChunksSkipped is the number of chunks that replaced an existing
	// entry instead of adding a new one.
	ChunksSkipped int `json:"chunks_skipped"`

	// Errors lists per-document failures.
	Errors []IngestError `json:"errors,omitempty"`
}
