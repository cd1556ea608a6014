package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
// Templates use {profile}, {context} and {question} placeholders.
const (
	// PromptDecision mandates one eligibility label plus explanation, citations and confidence.
	PromptDecision = "decision"

	// PromptInformational asks for a concise cited answer.
	PromptInformational = "informational"

	// PromptSimplified is the de-risked prompt used for the single generation retry.
	// It has no {profile} placeholder.
	PromptSimplified = "simplified"
)
