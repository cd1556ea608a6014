// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	hugotembed "github.com/swiftvisa/swiftvisa-cli/internal/adapters/driven/embedding/hugot"
	ollamaembed "github.com/swiftvisa/swiftvisa-cli/internal/adapters/driven/embedding/ollama"
	geminillm "github.com/swiftvisa/swiftvisa-cli/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/swiftvisa/swiftvisa-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/swiftvisa/swiftvisa-cli/internal/adapters/driven/llm/openai"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
	"github.com/swiftvisa/swiftvisa-cli/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// settingsHint is appended to configuration errors.
const settingsHint = "Run 'swiftvisa settings set' to fix"

// Getenv reads environment variables. Tests replace it.
var Getenv = os.Getenv

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string // Non-fatal issues that caused fallback.
	Degraded         bool     // True if no embedding service is available.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		if err := r.EmbeddingService.Close(); err != nil {
			logger.Warn("close embedding service: %v", err)
		}
	}
	if r.LLMService != nil {
		if err := r.LLMService.Close(); err != nil {
			logger.Warn("close LLM service: %v", err)
		}
	}
}

// Init creates the embedding and generation services.
// An embedding failure is a warning and leaves retrieval lexical only.
// A generation failure, such as a missing API key, is fatal.
func Init(ctx context.Context, settings *domain.AppSettings) (*InitResult, error) {
	result := &InitResult{}

	embedding, err := CreateEmbeddingService(&settings.Embedding)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, err.Error())
		result.Degraded = true
	case embedding == nil:
		result.Warnings = append(result.Warnings, "embedding provider not configured, using keyword retrieval")
		result.Degraded = true
	default:
		result.EmbeddingService = embedding
	}

	llm, err := CreateLLMService(ctx, &settings.LLM)
	if err != nil {
		result.Close()
		return nil, fmt.Errorf("%w. %s", err, settingsHint)
	}
	if llm == nil {
		result.Close()
		return nil, fmt.Errorf("%w: no LLM provider configured. %s", domain.ErrLLMUnavailable, settingsHint)
	}
	result.LLMService = llm

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result, nil
}

// ResolveAPIKey fills a missing API key for hosted providers from the environment.
func ResolveAPIKey(settings *domain.LLMSettings) {
	if settings == nil || settings.APIKey != "" {
		return
	}
	if env := settings.Provider.APIKeyEnv(); env != "" {
		settings.APIKey = Getenv(env)
	}
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	svc, err := CreateLLMService(ctx, settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || settings.Provider == "" {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderHugot:
		return hugotembed.NewEmbeddingService(hugotembed.Config{
			Model:      settings.Model,
			ModelDir:   settings.ModelDir,
			Dimensions: dimensionsFor(settings, hugotembed.DefaultDimensions),
		})

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensionsFor(settings, ollamaembed.DefaultDimensions),
		}), nil

	case domain.AIProviderOpenAI, domain.AIProviderGemini:
		return nil, fmt.Errorf("%w: %s embeddings, use hugot or ollama", domain.ErrUnsupportedType, settings.Provider)

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// dimensionsFor picks the configured size, then the known model size, then the adapter default.
func dimensionsFor(settings *domain.EmbeddingSettings, fallback int) int {
	if settings.Dimensions > 0 {
		return settings.Dimensions
	}
	if dims := domain.EmbeddingDimensions()[settings.Model]; dims > 0 {
		return dims
	}
	return fallback
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if no provider is set. Hosted providers without a key fail with ErrAPIKeyMissing.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || settings.Provider == "" {
		return nil, nil
	}

	resolved := *settings
	ResolveAPIKey(&resolved)
	if resolved.Provider.RequiresAPIKey() && resolved.APIKey == "" {
		return nil, fmt.Errorf("%w: set llm.api_key or %s", domain.ErrAPIKeyMissing, resolved.Provider.APIKeyEnv())
	}

	switch resolved.Provider {
	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.LLMConfig{
			APIKey:  resolved.APIKey,
			BaseURL: resolved.BaseURL,
			Model:   resolved.Model,
		})

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  resolved.APIKey,
			BaseURL: resolved.BaseURL,
			Model:   resolved.Model,
		})

	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: resolved.BaseURL,
			Model:   resolved.Model,
		}), nil

	case domain.AIProviderHugot:
		return nil, fmt.Errorf("%w: hugot does not support generation, use gemini, openai or ollama", domain.ErrUnsupportedType)

	default:
		return nil, fmt.Errorf("%w: LLM provider %q", domain.ErrUnsupportedType, resolved.Provider)
	}
}
