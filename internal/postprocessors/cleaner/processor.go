// Package cleaner normalises extracted text before chunking.
package cleaner

import (
	"context"
	"regexp"
	"strings"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

var (
	controlChars = regexp.MustCompile(`[\r\x0b\x0c]+`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
	spaceRuns    = regexp.MustCompile(`[ \t]+`)
)

// bullets maps bullet glyphs produced by PDF extraction to "-".
var bullets = strings.NewReplacer("•", "-", "\uf0b7", "-", "▪", "-", "●", "-")

// Processor collapses control characters and blank runs, normalises
// spaces and maps bullets to "-". Paragraph breaks are kept.
type Processor struct{}

// New creates a cleaner.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "cleaner"
}

// Process rewrites doc.Content in place and passes chunks through unchanged.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	doc.Content = Clean(doc.Content)
	return chunks, nil
}

// Clean applies the text normalisation rules.
func Clean(text string) string {
	text = controlChars.ReplaceAllString(text, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	text = bullets.Replace(text)
	return strings.TrimSpace(text)
}
