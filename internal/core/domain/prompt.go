package domain

// PromptMode selects the instruction template used to build a prompt.
type PromptMode string

// Available prompt modes.
const (
	// PromptModeDecision asks for one eligibility label plus structured fields.
	PromptModeDecision PromptMode = "decision"

	// PromptModeInformational asks for a free-text answer with inline citations.
	PromptModeInformational PromptMode = "informational"
)

// IsValid returns true if the mode is recognised.
func (m PromptMode) IsValid() bool {
	return m == PromptModeDecision || m == PromptModeInformational
}

// String returns the string representation.
func (m PromptMode) String() string {
	return string(m)
}

// QueryRequest is the input to one pipeline run.
type QueryRequest struct {
	// Query is the user's question.
	Query string `json:"query"`

	// TopK is the number of context chunks. Zero uses the configured default.
	TopK int `json:"top_k,omitempty"`

	// Mode selects the prompt template. Empty means decision mode.
	Mode PromptMode `json:"mode,omitempty"`

	// Profile holds optional user facts.
	Profile *UserProfile `json:"user_profile,omitempty"`
}
