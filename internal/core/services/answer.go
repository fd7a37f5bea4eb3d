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

// Ensure AnswerService implements the interface.
var _ driving.Answerer = (*AnswerService)(nil)

// Completion parameters for grounded answers. Low temperature keeps the
// model close to the supplied passages.
const (
	answerMaxTokens   = 1024
	answerTemperature = 0.2
)

// AnswerService composes grounded answers from retrieved context.
type AnswerService struct {
	llm        driven.CompletionService
	prompts    driven.PromptStore
	maxSources int
}

// NewAnswerService creates a new answer service. maxSources caps the source
// attribution attached to each answer.
func NewAnswerService(llm driven.CompletionService, prompts driven.PromptStore, maxSources int) *AnswerService {
	return &AnswerService{
		llm:        llm,
		prompts:    prompts,
		maxSources: maxSources,
	}
}

// Answer generates a grounded answer for the question from the bundle.
// An empty bundle short-circuits to the fixed fallback text without calling
// the completion service, so the fallback is deterministic and free.
func (s *AnswerService) Answer(ctx context.Context, question string, bundle domain.ContextBundle) (*domain.Answer, error) {
	if bundle.Empty() {
		fallback, err := s.prompts.Load(driven.PromptFallbackText)
		if err != nil {
			return nil, fmt.Errorf("%w: load fallback text: %w", domain.ErrAnswerGenerationFailed, err)
		}
		logger.Debug("No grounding available, returning fallback answer")
		return &domain.Answer{Text: strings.TrimSpace(fallback)}, nil
	}

	template, err := s.prompts.Load(driven.PromptGroundedAnswer)
	if err != nil {
		return nil, fmt.Errorf("%w: load answer prompt: %w", domain.ErrAnswerGenerationFailed, err)
	}

	prompt := fmt.Sprintf(template, s.contextBlock(bundle), question)

	text, err := s.llm.Complete(ctx, prompt, driven.CompleteOptions{
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAnswerGenerationFailed, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty completion", domain.ErrAnswerGenerationFailed)
	}

	return &domain.Answer{
		Text:    text,
		Sources: s.attributeSources(text, bundle),
	}, nil
}

// contextBlock renders the bundle's passages with source tags so the model
// can cite the documents it draws from.
func (s *AnswerService) contextBlock(bundle domain.ContextBundle) string {
	var b strings.Builder
	for _, p := range bundle.Passages {
		fmt.Fprintf(&b, "[Source: %s]\n%s\n\n", p.Source.DocumentID, p.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// attributeSources determines which consulted documents to cite. Documents
// the model named explicitly win; when it named none, all consulted
// documents are cited in retrieval order. The result is always a subset of
// the bundle's sources, capped at maxSources.
func (s *AnswerService) attributeSources(answer string, bundle domain.ContextBundle) []string {
	consulted := bundle.SourceIDs()

	var cited []string
	for _, id := range consulted {
		if strings.Contains(answer, id) {
			cited = append(cited, id)
		}
	}
	if len(cited) == 0 {
		cited = consulted
	}

	if s.maxSources > 0 && len(cited) > s.maxSources {
		cited = cited[:s.maxSources]
	}
	return cited
}
