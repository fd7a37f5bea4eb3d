// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/corpusqa/corpusqa-cli/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/corpusqa/corpusqa-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/corpusqa/corpusqa-cli/internal/adapters/driven/embedding/openai"
	indexfile "github.com/corpusqa/corpusqa-cli/internal/adapters/driven/index/file"
	indexsqlite "github.com/corpusqa/corpusqa-cli/internal/adapters/driven/index/sqlite"
	geminillm "github.com/corpusqa/corpusqa-cli/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/corpusqa/corpusqa-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/corpusqa/corpusqa-cli/internal/adapters/driven/llm/openai"
	"github.com/corpusqa/corpusqa-cli/internal/core/domain"
	"github.com/corpusqa/corpusqa-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of service initialisation.
type InitResult struct {
	Embedder    driven.Embedder
	Completion  driven.CompletionService
	VectorIndex driven.VectorIndex
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Embedder != nil {
		r.Embedder.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.Completion != nil {
		r.Completion.Close()
	}
}

// CreateAndValidateEmbedder creates an embedder and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbedder(ctx context.Context, settings domain.AppSettings) (driven.Embedder, error) {
	svc, err := CreateEmbedder(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Set the provider API key or edit the config file",
			domain.ErrEmbedderUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbedderUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateCompletion creates a completion service and validates
// connectivity. Returns the service if successful, or an error with guidance.
func CreateAndValidateCompletion(ctx context.Context, settings domain.AppSettings) (driven.CompletionService, error) {
	svc, err := CreateCompletion(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Set the provider API key or edit the config file",
			domain.ErrLLMUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// CreateEmbedder creates the appropriate embedder based on settings.
func CreateEmbedder(ctx context.Context, settings domain.AppSettings) (driven.Embedder, error) {
	cfg := settings.Embedding
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("embedding provider %q is not configured", cfg.Provider)
	}

	switch cfg.Provider {
	case domain.AIProviderGemini:
		return geminiembed.NewEmbedder(ctx, geminiembed.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: settings.Index.Dimensions,
		})

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbedder(openaiembed.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: settings.Index.Dimensions,
		})

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbedder(ollamaembed.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: settings.Index.Dimensions,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// CreateCompletion creates the appropriate completion service based on settings.
func CreateCompletion(ctx context.Context, settings domain.AppSettings) (driven.CompletionService, error) {
	cfg := settings.LLM
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("completion provider %q is not configured", cfg.Provider)
	}

	switch cfg.Provider {
	case domain.AIProviderGemini:
		return geminillm.NewCompletionService(ctx, geminillm.Config{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		})

	case domain.AIProviderOpenAI:
		return openaillm.NewCompletionService(openaillm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})

	case domain.AIProviderOllama:
		return ollamallm.NewCompletionService(ollamallm.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", cfg.Provider)
	}
}

// CreateVectorIndex creates the configured vector index backend and loads
// its persisted state.
func CreateVectorIndex(ctx context.Context, settings domain.IndexSettings) (driven.VectorIndex, error) {
	var (
		index driven.VectorIndex
		err   error
	)

	switch settings.Backend {
	case domain.IndexBackendSQLite:
		index, err = indexsqlite.New(settings.Path, settings.Dimensions)
	case domain.IndexBackendFile:
		index, err = indexfile.New(settings.Path, settings.Dimensions)
	default:
		return nil, fmt.Errorf("%w: unsupported index backend: %s", domain.ErrInvalidConfiguration, settings.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s index: %w", settings.Backend, err)
	}

	if err := index.Load(ctx); err != nil {
		index.Close()
		return nil, fmt.Errorf("load index: %w", err)
	}

	return index, nil
}
