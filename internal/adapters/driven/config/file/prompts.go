package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
	"github.com/swiftvisa/swiftvisa-cli/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// Placeholders every template must keep.
var requiredPlaceholders = []string{"{context}", "{question}"}

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// Files are only created on first Load, not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptDecision: `Visa Eligibility Assessment

{profile}RELEVANT DOCUMENTS:
{context}

QUESTION: {question}

Based on the documents provided, answer these questions:

1. What is your primary eligibility assessment? (Choose ONE: Eligible / Not Eligible / Need More Information)

2. Brief explanation (2-3 sentences explaining the decision):

3. Which document numbers support your assessment? (e.g., [1], [2])

4. Your confidence level (0.0 to 1.0):

Important: Provide ONE clear decision only. Do not provide multiple conflicting decisions.`,

	driven.PromptInformational: `You are SwiftVisa, an expert immigration assistant. Use ONLY the numbered context snippets below to answer.
{profile}
CONTEXT (numbered snippets):
{context}

QUESTION:
{question}

TASK:
- Provide a concise, factual answer (3-8 sentences).
- Cite context snippets inline as [n].
- If information is missing, respond: "Insufficient information in the provided documents to answer fully." and list what is missing.`,

	driven.PromptSimplified: `Answer the visa question using only the numbered documents below.

DOCUMENTS:
{context}

QUESTION: {question}

Reply in this format:
Decision: Eligible, Not Eligible or Need More Information
Reason: one or two sentences citing documents as [n]
Confidence: a number from 0.0 to 1.0`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.swiftvisa/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// DefaultPrompt returns the embedded template for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// Load returns the prompt template for the given name.
//
// A user file that lost a required placeholder is ignored in favour of the
// embedded default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	if missing := missingPlaceholder(prompt); missing != "" {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			logger.Warn("Prompt %q is missing %s, using the built-in template", name, missing)
			prompt = defaultPrompt
		}
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

func missingPlaceholder(prompt string) string {
	for _, p := range requiredPlaceholders {
		if !strings.Contains(prompt, p) {
			return p
		}
	}
	return ""
}

// initialise creates the prompt directory and default files.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# SwiftVisa Prompts

Templates used to ask the language model about visa eligibility.

## Files

- ` + "`decision.txt`" + ` - Asks for one eligibility decision with reasons, citations and confidence
- ` + "`informational.txt`" + ` - Asks for a short cited answer
- ` + "`simplified.txt`" + ` - Shorter prompt used once when the first request fails

## Placeholders

- ` + "`{profile}`" + ` - The USER PROFILE block, empty when no facts were given
- ` + "`{context}`" + ` - The numbered document snippets (required)
- ` + "`{question}`" + ` - The user's question (required)

A template missing a required placeholder is ignored and the built-in version is used.
`
	return os.WriteFile(path, []byte(content), 0600)
}
