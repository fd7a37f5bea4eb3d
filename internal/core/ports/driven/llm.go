package driven

import "context"

// CompletionService wraps the external LLM completion capability:
// complete(prompt) -> text.
//
// Implementations may include:
//   - Gemini (gemini-2.5-flash)
//   - OpenAI (GPT-4o family)
type CompletionService interface {
	// Complete produces a text completion for the prompt. Callers supply
	// timeouts through ctx; failures surface to answer composition as
	// domain.ErrAnswerGenerationFailed.
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)

	// ModelName returns the name of the completion model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompleteOptions configures text generation behaviour.
type CompleteOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}
