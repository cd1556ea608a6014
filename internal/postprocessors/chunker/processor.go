// Package chunker provides a sentence-based text chunking processor.
package chunker

import (
	"context"
	"strings"
	"unicode"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultMaxWords is the default word budget per chunk.
const DefaultMaxWords = 500

// Processor groups whole sentences into chunks of at most maxWords words.
// A sentence longer than the budget is split into consecutive word windows.
type Processor struct {
	maxWords int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxWords sets the word budget per chunk.
func WithMaxWords(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxWords = n
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{maxWords: DefaultMaxWords}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// MaxWords returns the word budget per chunk.
func (p *Processor) MaxWords() int {
	return p.maxWords
}

// Process splits the document content into chunks.
// Input chunks are ignored; ids are assigned by the corpus writer.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	texts := p.Split(doc.Content)
	if len(texts) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			Source:   doc.Source,
			Position: i,
			Text:     text,
		}
	}
	return chunks, nil
}

// Split returns the chunk texts for content.
func (p *Processor) Split(content string) []string {
	var (
		chunks  []string
		current []string
		count   int
	)
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			count = 0
		}
	}

	for _, sentence := range SplitSentences(content) {
		words := strings.Fields(sentence)
		if len(words) > p.maxWords {
			flush()
			for i := 0; i < len(words); i += p.maxWords {
				end := min(i+p.maxWords, len(words))
				chunks = append(chunks, strings.Join(words[i:end], " "))
			}
			continue
		}
		if count+len(words) > p.maxWords {
			flush()
		}
		current = append(current, sentence)
		count += len(words)
	}
	flush()
	return chunks
}

// SplitSentences splits text after '.', '!' or '?' when followed by whitespace.
// Sentences are trimmed and empty ones dropped.
func SplitSentences(text string) []string {
	var sentences []string
	runes := []rune(strings.TrimSpace(text))
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
