package services

import (
	"fmt"
	"strings"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
)

// noContext is rendered when no snippet fits or none were retrieved.
const noContext = "[no context available]"

// snippetSeparator joins numbered context snippets.
const snippetSeparator = "\n---\n"

// PromptTemplates holds the instruction templates used by the builder.
type PromptTemplates struct {
	Decision      string
	Informational string
	Simplified    string
}

// LoadPromptTemplates reads all templates from a prompt store.
func LoadPromptTemplates(store driven.PromptStore) (PromptTemplates, error) {
	var t PromptTemplates
	for name, dst := range map[string]*string{
		driven.PromptDecision:      &t.Decision,
		driven.PromptInformational: &t.Informational,
		driven.PromptSimplified:    &t.Simplified,
	} {
		content, err := store.Load(name)
		if err != nil {
			return PromptTemplates{}, fmt.Errorf("load prompt %s: %w", name, err)
		}
		*dst = content
	}
	return t, nil
}

// PromptBuilder assembles prompts from retrieved context. Build is pure.
type PromptBuilder struct {
	templates PromptTemplates
}

// NewPromptBuilder creates a builder with the given templates.
func NewPromptBuilder(templates PromptTemplates) *PromptBuilder {
	return &PromptBuilder{templates: templates}
}

// Build renders the prompt for mode. Context snippets are added until maxChars is
// reached; the snippet that crosses the budget is truncated rather than dropped.
func (b *PromptBuilder) Build(
	query string, results []domain.RetrievalResult, profile *domain.UserProfile, maxChars int, mode domain.PromptMode,
) string {
	template := b.templates.Decision
	if mode == domain.PromptModeInformational {
		template = b.templates.Informational
	}
	return render(template, renderProfile(profile), BuildContext(results, maxChars), query)
}

// BuildSimplified renders the de-risked retry prompt with half the context budget and no profile.
func (b *PromptBuilder) BuildSimplified(query string, results []domain.RetrievalResult, maxChars int) string {
	return render(b.templates.Simplified, "", BuildContext(results, maxChars/2), query)
}

// BuildContext renders numbered snippets within a character budget.
func BuildContext(results []domain.RetrievalResult, maxChars int) string {
	var parts []string
	total := 0
	for i, r := range results {
		piece := snippet(i+1, r)
		n := len([]rune(piece))
		if total+n > maxChars {
			if remaining := maxChars - total; remaining > 0 {
				parts = append(parts, string([]rune(piece)[:remaining]))
			}
			break
		}
		parts = append(parts, piece)
		total += n
	}
	if len(parts) == 0 {
		return noContext
	}
	return strings.Join(parts, snippetSeparator)
}

// snippet formats one numbered context entry.
func snippet(idx int, r domain.RetrievalResult) string {
	source := r.Meta.Source
	if source == "" {
		source = "unknown"
	}
	chunkID := r.Meta.ChunkID
	if chunkID == "" {
		chunkID = r.UID
	}
	return fmt.Sprintf("[%d] Source: %s | chunk_id: %s\n%s\n", idx, source, chunkID, strings.TrimSpace(r.Text))
}

func renderProfile(profile *domain.UserProfile) string {
	lines := profile.Lines()
	if len(lines) == 0 {
		return ""
	}
	return "USER PROFILE:\n" + strings.Join(lines, "\n") + "\n\n"
}

func render(template, profile, context, question string) string {
	r := strings.NewReplacer(
		"{profile}", profile,
		"{context}", context,
		"{question}", question,
	)
	return strings.TrimSpace(r.Replace(template))
}
