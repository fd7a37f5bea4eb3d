package driven

// PromptStore provides access to LLM prompt templates.
// Templates live in user-editable files with embedded defaults, so the
// grounding prompt and fallback text can be tuned without a rebuild.
type PromptStore interface {
	// Load returns the named prompt template.
	Load(name string) (string, error)
}

// Prompt names recognised by the store.
const (
	// PromptGroundedAnswer is the template for answering strictly from
	// retrieved passages. It takes the context block and the question.
	PromptGroundedAnswer = "grounded_answer"

	// PromptFallbackText is the fixed reply returned, without any LLM
	// call, when retrieval produced no grounding.
	PromptFallbackText = "fallback_text"
)
