// Package services implements the application core: ingestion, retrieval,
// and answer composition.
package services

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/time/rate"

	"github.com/corpusqa/corpusqa-cli/internal/chunker"
	"github.com/corpusqa/corpusqa-cli/internal/core/domain"
	"github.com/corpusqa/corpusqa-cli/internal/core/ports/driven"
	"github.com/corpusqa/corpusqa-cli/internal/core/ports/driving"
	"github.com/corpusqa/corpusqa-cli/internal/extractors"
	"github.com/corpusqa/corpusqa-cli/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.Ingestor = (*IngestionService)(nil)

// Ingestion pipeline stages recorded in per-document errors.
const (
	stageExtract = "extract"
	stageEmbed   = "embed"
	stageInsert  = "insert"
)

// embedBatchSize caps the number of chunks sent per embedding request.
const embedBatchSize = 100

// DefaultEmbedRate is the embedding request rate applied when no limiter is
// supplied, sized for the Gemini free tier.
var DefaultEmbedRate = rate.Limit(2) // requests per second

// IngestionService walks a corpus folder, extracts and chunks every
// supported document, embeds the chunks, and writes them to the vector
// index. Each document is a complete atomic step: its chunks are inserted
// together or not at all.
type IngestionService struct {
	registry driven.ExtractorRegistry
	embedder driven.Embedder
	index    driven.VectorIndex
	chunker  *chunker.Chunker
	limiter  *rate.Limiter
}

// NewIngestionService creates a new ingestion service. A nil limiter gets
// the default embedding rate.
func NewIngestionService(
	registry driven.ExtractorRegistry,
	embedder driven.Embedder,
	index driven.VectorIndex,
	ch *chunker.Chunker,
	limiter *rate.Limiter,
) *IngestionService {
	if limiter == nil {
		limiter = rate.NewLimiter(DefaultEmbedRate, 1)
	}
	return &IngestionService{
		registry: registry,
		embedder: embedder,
		index:    index,
		chunker:  ch,
		limiter:  limiter,
	}
}

// Ingest runs the pipeline over every supported file under folder.
// A single document's failure is recorded in the report and never aborts
// the batch. Cancellation takes effect between documents.
func (s *IngestionService) Ingest(ctx context.Context, folder string, opts domain.IngestOptions) (*domain.IngestionReport, error) {
	if opts.VerifyOnly {
		if err := s.embedder.Ping(ctx); err != nil {
			return nil, fmt.Errorf("%w: embedder ping: %w", domain.ErrEmbedderUnavailable, err)
		}
		logger.Info("Embedding service %s reachable", s.embedder.ModelName())
		return &domain.IngestionReport{}, nil
	}

	files, err := s.collectFiles(folder)
	if err != nil {
		return nil, fmt.Errorf("scan folder: %w", err)
	}

	if opts.ClearExisting {
		if err := s.index.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clear index: %w", err)
		}
		logger.Info("Cleared existing index")
	}

	logger.Section("Ingestion")
	logger.Info("Found %d supported files under %s", len(files), folder)

	report := &domain.IngestionReport{}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		s.ingestFile(ctx, path, report)
	}

	if err := s.index.Persist(ctx); err != nil {
		return report, fmt.Errorf("persist index: %w", err)
	}

	logger.Info("Ingested %d documents (%d skipped): %d chunks added, %d replaced, %d errors",
		report.DocumentsProcessed, report.DocumentsSkipped, report.ChunksAdded, report.ChunksSkipped, len(report.Errors))

	return report, nil
}

// collectFiles walks the folder and returns the supported file paths in
// deterministic order.
func (s *IngestionService) collectFiles(folder string) ([]string, error) {
	supported := make(map[string]bool)
	for _, ext := range s.registry.Extensions() {
		supported[ext] = true
	}

	var files []string
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Skip hidden directories like .git
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if supported[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ingestFile runs one document through extract, chunk, embed, and insert.
// Failures are recorded on the report instead of returned.
func (s *IngestionService) ingestFile(ctx context.Context, path string, report *domain.IngestionReport) {
	extractor, err := s.registry.ExtractorFor(path)
	if err != nil {
		report.Errors = append(report.Errors, domain.IngestError{
			DocumentID: path, Stage: stageExtract, Message: err.Error(),
		})
		return
	}

	doc, err := extractor.Extract(ctx, path)
	if err != nil {
		logger.Warn("Extraction failed for %s: %v", path, err)
		report.Errors = append(report.Errors, domain.IngestError{
			DocumentID: path, Stage: stageExtract, Message: err.Error(),
		})
		return
	}

	doc.Content = extractors.CleanText(doc.Content)
	if !extractors.IsMeaningful(doc.Content) {
		logger.Debug("Skipping %s: no meaningful text", path)
		report.DocumentsSkipped++
		return
	}

	chunks := s.chunker.SplitAll(doc.ID, doc.Content)
	if len(chunks) == 0 {
		report.DocumentsSkipped++
		return
	}

	entries, err := s.embedChunks(ctx, doc, chunks)
	if err != nil {
		logger.Warn("Embedding failed for %s: %v", path, err)
		report.Errors = append(report.Errors, domain.IngestError{
			DocumentID: path, Stage: stageEmbed, Message: err.Error(),
		})
		return
	}

	added, err := s.index.Insert(ctx, entries)
	if err != nil {
		report.Errors = append(report.Errors, domain.IngestError{
			DocumentID: path, Stage: stageInsert, Message: err.Error(),
		})
		return
	}

	report.DocumentsProcessed++
	report.ChunksAdded += added
	report.ChunksSkipped += len(entries) - added

	logger.Debug("Indexed %s: %d chunks (%d new)", path, len(entries), added)
}

// embedChunks embeds a document's chunks in rate-limited batches and builds
// the index entries.
func (s *IngestionService) embedChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.IndexEntry, error) {
	entries := make([]domain.IndexEntry, 0, len(chunks))

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		batch := chunks[start:end]

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrEmbeddingFailed, len(vectors), len(batch))
		}

		for i, c := range batch {
			entries = append(entries, domain.IndexEntry{
				ChunkID: c.ID,
				Vector:  vectors[i],
				Text:    c.Text,
				Source: domain.SourceMeta{
					DocumentID:  doc.ID,
					Title:       doc.Title,
					ContentType: doc.ContentType,
					Position:    c.Position,
					StartOffset: c.StartOffset,
					EndOffset:   c.EndOffset,
				},
			})
		}
	}

	return entries, nil
}
