package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
	"github.com/swiftvisa/swiftvisa-cli/internal/logger"
)

// ErrorMarker prefixes generation failures returned as text.
const ErrorMarker = "ERROR:"

// Generator calls an LLMService and always returns text.
// A failed, blocked or empty first attempt gets exactly one retry with the
// simplified prompt; if that also fails the result is an ErrorMarker string.
type Generator struct {
	llm      driven.LLMService
	settings domain.GenerationSettings
}

// NewGenerator creates a generator. A zero timeout uses the default.
func NewGenerator(llm driven.LLMService, settings domain.GenerationSettings) *Generator {
	if settings.Timeout <= 0 {
		settings.Timeout = domain.DefaultAppSettings().Generation.Timeout
	}
	if settings.MaxOutputTokens <= 0 {
		settings.MaxOutputTokens = domain.DefaultAppSettings().Generation.MaxOutputTokens
	}
	return &Generator{llm: llm, settings: settings}
}

// Generate returns model text for prompt, retrying once with simplified on failure.
func (g *Generator) Generate(ctx context.Context, prompt, simplified string) string {
	defer logger.Timed("generate")()

	if g.llm == nil {
		return ErrorText(domain.ErrLLMUnavailable)
	}

	text, err := g.attempt(ctx, prompt)
	if err == nil {
		return text
	}
	logger.Warn("Generation failed (%v), retrying with simplified prompt", err)

	if ctx.Err() != nil {
		return ErrorText(ctx.Err())
	}
	if simplified == "" {
		simplified = prompt
	}

	text, retryErr := g.attempt(ctx, simplified)
	if retryErr == nil {
		return text
	}
	logger.Warn("Simplified retry failed: %v", retryErr)
	return ErrorText(retryErr)
}

// attempt makes one bounded call and treats whitespace-only output as empty.
func (g *Generator) attempt(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.settings.Timeout)
	defer cancel()

	text, err := g.llm.Generate(callCtx, prompt, driven.GenerateOptions{
		MaxTokens:   g.settings.MaxOutputTokens,
		Temperature: g.settings.Temperature,
	})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("timed out after %s: %w", g.settings.Timeout, err)
		}
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyGeneration
	}
	return text, nil
}

// ErrorText renders err as an error-marked result.
func ErrorText(err error) string {
	return fmt.Sprintf("%s %v", ErrorMarker, err)
}

// IsErrorText reports whether text is an error-marked result.
func IsErrorText(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), ErrorMarker)
}
