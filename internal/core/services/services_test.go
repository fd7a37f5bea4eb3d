package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	indexfile "github.com/corpusqa/corpusqa-cli/internal/adapters/driven/index/file"
	"github.com/corpusqa/corpusqa-cli/internal/chunker"
	"github.com/corpusqa/corpusqa-cli/internal/core/domain"
	"github.com/corpusqa/corpusqa-cli/internal/core/ports/driven"
	"github.com/corpusqa/corpusqa-cli/internal/extractors"
	"github.com/corpusqa/corpusqa-cli/internal/extractors/markdown"
	"github.com/corpusqa/corpusqa-cli/internal/extractors/plaintext"
)

const testDimensions = 3

// mockEmbedder produces deterministic embeddings without any network I/O.
// Texts get a unit vector derived from their hash unless an explicit vector
// is registered, so identical text always embeds identically.
type mockEmbedder struct {
	vectors    map[string][]float32
	embedCalls int
	pingCalls  int
	pingErr    error
	embedErr   error
}

var _ driven.Embedder = (*mockEmbedder)(nil)

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{vectors: make(map[string][]float32)}
}

func (m *mockEmbedder) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	h := fnv.New32a()
	h.Write([]byte(text))
	sum := h.Sum32()
	v := []float32{
		float32(sum%101) + 1,
		float32(sum%53) + 1,
		float32(sum%29) + 1,
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.embedCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return m.Embed(ctx, text)
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.embedCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectorFor(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int   { return testDimensions }
func (m *mockEmbedder) ModelName() string { return "mock-embed" }
func (m *mockEmbedder) Close() error      { return nil }

func (m *mockEmbedder) Ping(_ context.Context) error {
	m.pingCalls++
	return m.pingErr
}

// mockCompletion records calls and returns a canned response.
type mockCompletion struct {
	response string
	err      error
	calls    int
	prompts  []string
}

var _ driven.CompletionService = (*mockCompletion)(nil)

func (m *mockCompletion) Complete(_ context.Context, prompt string, _ driven.CompleteOptions) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockCompletion) ModelName() string            { return "mock-llm" }
func (m *mockCompletion) Ping(_ context.Context) error { return nil }
func (m *mockCompletion) Close() error                 { return nil }

// staticPrompts serves prompts from a map.
type staticPrompts map[string]string

func (p staticPrompts) Load(name string) (string, error) {
	prompt, ok := p[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	return prompt, nil
}

func testPrompts() staticPrompts {
	return staticPrompts{
		driven.PromptGroundedAnswer: "Context:\n%s\n\nQuestion: %s\n\nAnswer:",
		driven.PromptFallbackText:   "I don't know.",
	}
}

// newTestIngestor wires an ingestion service over a fresh file index.
func newTestIngestor(t *testing.T, embedder *mockEmbedder) (*IngestionService, *indexfile.Index) {
	t.Helper()

	index, err := indexfile.New(filepath.Join(t.TempDir(), "index.bin"), testDimensions)
	require.NoError(t, err)

	ch, err := chunker.New(500, 100)
	require.NoError(t, err)

	registry := extractors.NewRegistry(plaintext.New(), markdown.New())
	return NewIngestionService(registry, embedder, index, ch, rate.NewLimiter(rate.Inf, 1)), index
}

// writeCorpus creates a folder of test documents.
func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}
	return dir
}

const chargesDoc = `Margin Pledge charges are Rs 50 per instruction. The charge applies
to every pledge request regardless of quantity. Unpledging is free of cost
and processed within one working day of the request being placed.`

const accountDoc = `Opening a trading account takes two working days once documents
are verified. Account opening is free for individual residents. Corporate
accounts follow a separate verification track and take longer to activate.`

func TestIngest_BuildsIndex(t *testing.T) {
	embedder := newMockEmbedder()
	ingestor, index := newTestIngestor(t, embedder)
	folder := writeCorpus(t, map[string]string{
		"charges.txt": chargesDoc,
		"account.md":  "# Account Opening\n\n" + accountDoc,
	})

	report, err := ingestor.Ingest(context.Background(), folder, domain.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 2, report.DocumentsProcessed)
	assert.Greater(t, report.ChunksAdded, 0)
	assert.Equal(t, 0, report.ChunksSkipped)
	assert.Empty(t, report.Errors)

	stats, err := index.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.ChunksAdded, stats.Entries)
	assert.Equal(t, 2, stats.Sources)
}

func TestIngest_SecondIdenticalRunAddsNothing(t *testing.T) {
	embedder := newMockEmbedder()
	ingestor, index := newTestIngestor(t, embedder)
	folder := writeCorpus(t, map[string]string{"charges.txt": chargesDoc})

	first, err := ingestor.Ingest(context.Background(), folder, domain.IngestOptions{})
	require.NoError(t, err)
	require.Greater(t, first.ChunksAdded, 0)

	second, err := ingestor.Ingest(context.Background(), folder, domain.IngestOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, second.ChunksAdded)
	assert.Equal(t, first.ChunksAdded, second.ChunksSkipped)

	stats, err := index.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.ChunksAdded, stats.Entries)
}

func TestIngest_SkipsUnsupportedAndMeaninglessFiles(t *testing.T) {
	embedder := newMockEmbedder()
	ingestor, _ := newTestIngestor(t, embedder)
	folder := writeCorpus(t, map[string]string{
		"charges.txt": chargesDoc,
		"image.png":   "binary noise",
		"tiny.txt":    "too short",
	})

	report, err := ingestor.Ingest(context.Background(), folder, domain.IngestOptions{})

	require.NoError(t, err)
	// The PNG is unsupported and the tiny file fails the meaningful-text
	// gate; neither is an error, but the gated document is counted.
	assert.Equal(t, 1, report.DocumentsProcessed)
	assert.Equal(t, 1, report.DocumentsSkipped)
	assert.Empty(t, report.Errors)
}

func TestIngest_SkipsHiddenDirectories(t *testing.T) {
	embedder := newMockEmbedder()
	ingestor, _ := newTestIngestor(t, embedder)
	folder := writeCorpus(t, map[string]string{
		"charges.txt":      chargesDoc,
		".git/objects.txt": chargesDoc,
	})

	report, err := ingestor.Ingest(context.Background(), folder, domain.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, report.DocumentsProcessed)
}

func TestIngest_EmbeddingFailureIsolatedPerDocument(t *testing.T) {
	embedder := newMockEmbedder()
	ingestor, index := newTestIngestor(t, embedder)
	folder := writeCorpus(t, map[string]string{
		"a_charges.txt": chargesDoc,
		"b_account.txt": accountDoc,
	})

	embedder.embedErr = errors.New("quota exceeded")

	report, err := ingestor.Ingest(context.Background(), folder, domain.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 0, report.DocumentsProcessed)
	require.Len(t, report.Errors, 2)
	for _, e := range report.Errors {
		assert.Equal(t, "embed", e.Stage)
	}

	stats, err := index.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
}

func TestIngest_InsertFailureRecordedWithInsertStage(t *testing.T) {
	embedder := newMockEmbedder()
	// Index dimension deliberately disagrees with the embedder's, so every
	// insert is rejected.
	index, err := indexfile.New(filepath.Join(t.TempDir(), "index.bin"), testDimensions+1)
	require.NoError(t, err)
	ch, err := chunker.New(500, 100)
	require.NoError(t, err)
	registry := extractors.NewRegistry(plaintext.New())
	ingestor := NewIngestionService(registry, embedder, index, ch, rate.NewLimiter(rate.Inf, 1))
	folder := writeCorpus(t, map[string]string{"charges.txt": chargesDoc})

	report, err := ingestor.Ingest(context.Background(), folder, domain.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 0, report.DocumentsProcessed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "insert", report.Errors[0].Stage)
	assert.Contains(t, report.Errors[0].Message, "dimension")
}

func TestIngest_VerifyOnly(t *testing.T) {
	embedder := newMockEmbedder()
	ingestor, index := newTestIngestor(t, embedder)
	folder := writeCorpus(t, map[string]string{"charges.txt": chargesDoc})

	report, err := ingestor.Ingest(context.Background(), folder, domain.IngestOptions{VerifyOnly: true})

	require.NoError(t, err)
	assert.Equal(t, 1, embedder.pingCalls)
	assert.Equal(t, 0, embedder.embedCalls)
	assert.Equal(t, 0, report.DocumentsProcessed)

	stats, err := index.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
}

func TestIngest_VerifyOnlyUnreachableEmbedder(t *testing.T) {
	embedder := newMockEmbedder()
	embedder.pingErr = errors.New("connection refused")
	ingestor, _ := newTestIngestor(t, embedder)

	_, err := ingestor.Ingest(context.Background(), t.TempDir(), domain.IngestOptions{VerifyOnly: true})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedderUnavailable)
}

func TestIngest_ClearExisting(t *testing.T) {
	embedder := newMockEmbedder()
	ingestor, index := newTestIngestor(t, embedder)

	first := writeCorpus(t, map[string]string{"old.txt": accountDoc})
	_, err := ingestor.Ingest(context.Background(), first, domain.IngestOptions{})
	require.NoError(t, err)

	second := writeCorpus(t, map[string]string{"new.txt": chargesDoc})
	report, err := ingestor.Ingest(context.Background(), second, domain.IngestOptions{ClearExisting: true})
	require.NoError(t, err)

	stats, err := index.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.ChunksAdded, stats.Entries)
	assert.Equal(t, 1, stats.Sources)
}

func TestIngest_CancelledContext(t *testing.T) {
	embedder := newMockEmbedder()
	ingestor, _ := newTestIngestor(t, embedder)
	folder := writeCorpus(t, map[string]string{"charges.txt": chargesDoc})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ingestor.Ingest(ctx, folder, domain.IngestOptions{})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngest_MissingFolder(t *testing.T) {
	embedder := newMockEmbedder()
	ingestor, _ := newTestIngestor(t, embedder)

	_, err := ingestor.Ingest(context.Background(), filepath.Join(t.TempDir(), "nope"), domain.IngestOptions{})

	assert.Error(t, err)
}

// seedIndex inserts entries with explicit vectors for retrieval tests.
func seedIndex(t *testing.T, index *indexfile.Index, entries ...domain.IndexEntry) {
	t.Helper()
	_, err := index.Insert(context.Background(), entries)
	require.NoError(t, err)
}

func indexEntry(id, docID, text string, vector []float32) domain.IndexEntry {
	return domain.IndexEntry{
		ChunkID: id,
		Vector:  vector,
		Text:    text,
		Source:  domain.SourceMeta{DocumentID: docID, Title: docID},
	}
}

func TestRetrieve_ReturnsTopPassagesAboveThreshold(t *testing.T) {
	embedder := newMockEmbedder()
	index, err := indexfile.New(filepath.Join(t.TempDir(), "index.bin"), testDimensions)
	require.NoError(t, err)

	query := "What are the Margin Pledge charges?"
	embedder.vectors[query] = []float32{1, 0, 0}

	seedIndex(t, index,
		indexEntry("c1", "doc1", "Margin Pledge charges are Rs 50 per instruction.", []float32{1, 0, 0}),
		indexEntry("c2", "doc1", "Unpledging is free of cost.", []float32{0.8, 0.6, 0}),
		indexEntry("c3", "doc2", "Account opening takes two working days.", []float32{0, 1, 0}),
	)

	retriever := NewRetrievalService(embedder, index)
	bundle, err := retriever.Retrieve(context.Background(), query, 3, 0.5)

	require.NoError(t, err)
	assert.Equal(t, query, bundle.Query)
	require.Len(t, bundle.Passages, 2, "the orthogonal passage falls below min score")
	assert.Equal(t, "c1", bundle.Passages[0].ChunkID)
	assert.Equal(t, "c2", bundle.Passages[1].ChunkID)
	assert.Greater(t, bundle.Passages[0].Score, bundle.Passages[1].Score)
	assert.Equal(t, []string{"doc1"}, bundle.SourceIDs())
}

func TestRetrieve_EmptyIndexYieldsEmptyBundle(t *testing.T) {
	embedder := newMockEmbedder()
	index, err := indexfile.New(filepath.Join(t.TempDir(), "index.bin"), testDimensions)
	require.NoError(t, err)

	retriever := NewRetrievalService(embedder, index)
	bundle, err := retriever.Retrieve(context.Background(), "anything", 5, 0.5)

	require.NoError(t, err)
	assert.True(t, bundle.Empty())
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	embedder := newMockEmbedder()
	index, err := indexfile.New(filepath.Join(t.TempDir(), "index.bin"), testDimensions)
	require.NoError(t, err)

	retriever := NewRetrievalService(embedder, index)
	_, err = retriever.Retrieve(context.Background(), "   ", 5, 0.5)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieve_EmbeddingFailure(t *testing.T) {
	embedder := newMockEmbedder()
	embedder.embedErr = errors.New("unavailable")
	index, err := indexfile.New(filepath.Join(t.TempDir(), "index.bin"), testDimensions)
	require.NoError(t, err)

	retriever := NewRetrievalService(embedder, index)
	_, err = retriever.Retrieve(context.Background(), "a question", 5, 0.5)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)
}

func groundedBundle() domain.ContextBundle {
	return domain.ContextBundle{
		Query: "What are the Margin Pledge charges?",
		Passages: []domain.RetrievedPassage{
			{
				ChunkID: "c1",
				Text:    "Margin Pledge charges are Rs 50 per instruction.",
				Source:  domain.SourceMeta{DocumentID: "doc1", Title: "charges"},
				Score:   0.93,
			},
			{
				ChunkID: "c2",
				Text:    "Unpledging is free of cost.",
				Source:  domain.SourceMeta{DocumentID: "doc1", Title: "charges"},
				Score:   0.71,
			},
			{
				ChunkID: "c3",
				Text:    "Account opening takes two working days.",
				Source:  domain.SourceMeta{DocumentID: "doc2", Title: "account"},
				Score:   0.64,
			},
		},
	}
}

func TestAnswer_GroundedInRetrievedPassages(t *testing.T) {
	llm := &mockCompletion{response: "Margin Pledge charges are Rs 50 per instruction (doc1)."}
	svc := NewAnswerService(llm, testPrompts(), 3)

	answer, err := svc.Answer(context.Background(), "What are the Margin Pledge charges?", groundedBundle())

	require.NoError(t, err)
	assert.Equal(t, 1, llm.calls)
	assert.Contains(t, answer.Text, "Rs 50 per instruction")

	// The prompt carries the passages and tags each with its source.
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "[Source: doc1]")
	assert.Contains(t, llm.prompts[0], "Margin Pledge charges are Rs 50 per instruction.")
	assert.Contains(t, llm.prompts[0], "What are the Margin Pledge charges?")

	// The model named doc1, so only doc1 is cited.
	assert.Equal(t, []string{"doc1"}, answer.Sources)
}

func TestAnswer_UncitedResponseGetsAllConsultedSources(t *testing.T) {
	llm := &mockCompletion{response: "The charge is Rs 50 per instruction."}
	svc := NewAnswerService(llm, testPrompts(), 3)

	answer, err := svc.Answer(context.Background(), "charges?", groundedBundle())

	require.NoError(t, err)
	assert.Equal(t, []string{"doc1", "doc2"}, answer.Sources)
}

func TestAnswer_SourcesCappedAtMax(t *testing.T) {
	llm := &mockCompletion{response: "An answer without citations."}
	svc := NewAnswerService(llm, testPrompts(), 1)

	answer, err := svc.Answer(context.Background(), "charges?", groundedBundle())

	require.NoError(t, err)
	assert.Equal(t, []string{"doc1"}, answer.Sources)
}

func TestAnswer_SourcesAreSubsetOfBundle(t *testing.T) {
	llm := &mockCompletion{response: "See doc1 and also doc99 which was never retrieved."}
	svc := NewAnswerService(llm, testPrompts(), 3)

	bundle := groundedBundle()
	answer, err := svc.Answer(context.Background(), "charges?", bundle)

	require.NoError(t, err)
	consulted := bundle.SourceIDs()
	for _, src := range answer.Sources {
		assert.Contains(t, consulted, src)
	}
	assert.NotContains(t, answer.Sources, "doc99")
}

func TestAnswer_EmptyBundleFallsBackWithoutLLMCall(t *testing.T) {
	llm := &mockCompletion{response: "should never be used"}
	svc := NewAnswerService(llm, testPrompts(), 3)

	bundle := domain.ContextBundle{Query: "what is the meaning of life?"}
	answer, err := svc.Answer(context.Background(), bundle.Query, bundle)

	require.NoError(t, err)
	assert.Equal(t, 0, llm.calls, "fallback must not invoke the completion service")
	assert.Equal(t, "I don't know.", answer.Text)
	assert.Empty(t, answer.Sources)
}

func TestAnswer_FallbackIsDeterministic(t *testing.T) {
	svc := NewAnswerService(nil, testPrompts(), 3)
	bundle := domain.ContextBundle{Query: "unknown topic"}

	first, err := svc.Answer(context.Background(), bundle.Query, bundle)
	require.NoError(t, err)
	second, err := svc.Answer(context.Background(), bundle.Query, bundle)
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
}

func TestAnswer_CompletionFailure(t *testing.T) {
	llm := &mockCompletion{err: errors.New("model overloaded")}
	svc := NewAnswerService(llm, testPrompts(), 3)

	_, err := svc.Answer(context.Background(), "charges?", groundedBundle())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAnswerGenerationFailed)
}

func TestAnswer_EmptyCompletion(t *testing.T) {
	llm := &mockCompletion{response: "   \n"}
	svc := NewAnswerService(llm, testPrompts(), 3)

	_, err := svc.Answer(context.Background(), "charges?", groundedBundle())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAnswerGenerationFailed)
}

// End-to-end over the real pipeline pieces: ingest a corpus, retrieve, and
// compose an answer, with only the AI providers mocked.
func TestPipeline_IngestRetrieveAnswer(t *testing.T) {
	embedder := newMockEmbedder()
	ingestor, index := newTestIngestor(t, embedder)
	folder := writeCorpus(t, map[string]string{
		"charges.txt": chargesDoc,
		"account.txt": accountDoc,
	})

	_, err := ingestor.Ingest(context.Background(), folder, domain.IngestOptions{})
	require.NoError(t, err)

	// The mock embeds identical text identically, so querying with a
	// chunk's exact text scores 1.0 against it. Each corpus document fits
	// in a single chunk, whose text is the cleaned document.
	query := extractors.CleanText(chargesDoc)
	retriever := NewRetrievalService(embedder, index)
	bundle, err := retriever.Retrieve(context.Background(), query, 3, 0.99)
	require.NoError(t, err)
	require.False(t, bundle.Empty())

	llm := &mockCompletion{response: "Margin Pledge charges are Rs 50 per instruction."}
	svc := NewAnswerService(llm, testPrompts(), 3)
	answer, err := svc.Answer(context.Background(), query, bundle)
	require.NoError(t, err)

	assert.Contains(t, answer.Text, "Rs 50")
	require.NotEmpty(t, answer.Sources)
	assert.Contains(t, answer.Sources[0], "charges.txt")
}
