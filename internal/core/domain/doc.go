// Package domain contains the core business entities for corpusqa:
// documents, chunks, index entries, context bundles, answers, and the
// error taxonomy shared across the pipeline.
package domain
