package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedModelDir   = "embedding.model_dir"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyTopK            = "retrieval.top_k"
	keyOverFetch       = "retrieval.over_fetch"
	keyVectorWeight    = "retrieval.vector_weight"
	keyKeywordWeight   = "retrieval.keyword_weight"
	keyKeywordCap      = "retrieval.keyword_cap"
	keyMaxContextChars = "retrieval.max_context_chars"
	keyRetrievalWeight = "confidence.retrieval_weight"
	keyDeclaredWeight  = "confidence.declared_weight"
	keyMaxOutputTokens = "generation.max_output_tokens"
	keyTemperature     = "generation.temperature"
	keyTimeoutSeconds  = "generation.timeout_seconds"
	keyIndexDir        = "storage.index_dir"
	keyAuditLog        = "storage.audit_log"
	keyAuditDB         = "storage.audit_db"
	keyServerAddr      = "server.addr"
	keyServerRateLimit = "server.rate_limit"
)

// settingKeys lists every recognised key in display order.
var settingKeys = []string{
	keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedModelDir,
	keyLLMProvider, keyLLMModel, keyLLMBaseURL, keyLLMAPIKey,
	keyTopK, keyOverFetch, keyVectorWeight, keyKeywordWeight, keyKeywordCap, keyMaxContextChars,
	keyRetrievalWeight, keyDeclaredWeight,
	keyMaxOutputTokens, keyTemperature, keyTimeoutSeconds,
	keyIndexDir, keyAuditLog, keyAuditDB,
	keyServerAddr, keyServerRateLimit,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings, filling gaps with defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	embedProvider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	embedModel := s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[embedProvider])
	dims := defaults.Embedding.Dimensions
	if d, ok := domain.EmbeddingDimensions()[embedModel]; ok {
		dims = d
	}

	llmProvider := s.getProvider(keyLLMProvider, defaults.LLM.Provider)

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   embedProvider,
			Model:      embedModel,
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL),
			ModelDir:   s.configStore.GetString(keyEmbedModelDir),
			Dimensions: dims,
		},
		LLM: domain.LLMSettings{
			Provider: llmProvider,
			Model:    s.getString(keyLLMModel, domain.DefaultLLMModels()[llmProvider]),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:            s.getInt(keyTopK, defaults.Retrieval.TopK),
			OverFetch:       s.getInt(keyOverFetch, defaults.Retrieval.OverFetch),
			VectorWeight:    s.getFloat(keyVectorWeight, defaults.Retrieval.VectorWeight),
			KeywordWeight:   s.getFloat(keyKeywordWeight, defaults.Retrieval.KeywordWeight),
			KeywordCap:      s.getInt(keyKeywordCap, defaults.Retrieval.KeywordCap),
			MaxContextChars: s.getInt(keyMaxContextChars, defaults.Retrieval.MaxContextChars),
		},
		Confidence: domain.ConfidenceSettings{
			RetrievalWeight: s.getFloat(keyRetrievalWeight, defaults.Confidence.RetrievalWeight),
			DeclaredWeight:  s.getFloat(keyDeclaredWeight, defaults.Confidence.DeclaredWeight),
		},
		Generation: domain.GenerationSettings{
			MaxOutputTokens: s.getInt(keyMaxOutputTokens, defaults.Generation.MaxOutputTokens),
			Temperature:     s.getFloat(keyTemperature, defaults.Generation.Temperature),
			Timeout: time.Duration(
				s.getInt(keyTimeoutSeconds, int(defaults.Generation.Timeout/time.Second))) * time.Second,
		},
		Storage: domain.StorageSettings{
			IndexDir: s.configStore.GetString(keyIndexDir),
			AuditLog: s.configStore.GetString(keyAuditLog),
			AuditDB:  s.configStore.GetString(keyAuditDB),
		},
		Server: domain.ServerSettings{
			Addr:      s.getString(keyServerAddr, defaults.Server.Addr),
			RateLimit: s.getFloat(keyServerRateLimit, defaults.Server.RateLimit),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := map[string]any{
		keyEmbedProvider:   settings.Embedding.Provider.String(),
		keyEmbedModel:      settings.Embedding.Model,
		keyEmbedBaseURL:    settings.Embedding.BaseURL,
		keyEmbedModelDir:   settings.Embedding.ModelDir,
		keyLLMProvider:     settings.LLM.Provider.String(),
		keyLLMModel:        settings.LLM.Model,
		keyLLMBaseURL:      settings.LLM.BaseURL,
		keyTopK:            settings.Retrieval.TopK,
		keyOverFetch:       settings.Retrieval.OverFetch,
		keyVectorWeight:    settings.Retrieval.VectorWeight,
		keyKeywordWeight:   settings.Retrieval.KeywordWeight,
		keyKeywordCap:      settings.Retrieval.KeywordCap,
		keyMaxContextChars: settings.Retrieval.MaxContextChars,
		keyRetrievalWeight: settings.Confidence.RetrievalWeight,
		keyDeclaredWeight:  settings.Confidence.DeclaredWeight,
		keyMaxOutputTokens: settings.Generation.MaxOutputTokens,
		keyTemperature:     settings.Generation.Temperature,
		keyTimeoutSeconds:  int(settings.Generation.Timeout / time.Second),
		keyIndexDir:        settings.Storage.IndexDir,
		keyAuditLog:        settings.Storage.AuditLog,
		keyAuditDB:         settings.Storage.AuditDB,
		keyServerAddr:      settings.Server.Addr,
		keyServerRateLimit: settings.Server.RateLimit,
	}
	if settings.LLM.APIKey != "" {
		values[keyLLMAPIKey] = settings.LLM.APIKey
	}

	for _, key := range settingKeys {
		val, ok := values[key]
		if !ok {
			continue
		}
		if err := s.configStore.Set(key, val); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// Keys returns every recognised setting key in display order.
func (s *SettingsService) Keys() []string {
	out := make([]string, len(settingKeys))
	copy(out, settingKeys)
	return out
}

// Set parses value for key and stores it. The resulting settings must validate.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := applySetting(settings, key, strings.TrimSpace(value)); err != nil {
		return err
	}
	if err := validateSettings(settings); err != nil {
		return err
	}
	return s.Save(settings)
}

// applySetting writes one parsed value into settings.
//
//nolint:gocyclo // One case per key.
func applySetting(settings *domain.AppSettings, key, value string) error {
	var err error
	switch key {
	case keyEmbedProvider:
		settings.Embedding.Provider, err = parseProvider(value)
		if err == nil {
			settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
		}
	case keyEmbedModel:
		settings.Embedding.Model = value
	case keyEmbedBaseURL:
		settings.Embedding.BaseURL = value
	case keyEmbedModelDir:
		settings.Embedding.ModelDir = value
	case keyLLMProvider:
		settings.LLM.Provider, err = parseProvider(value)
		if err == nil {
			settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
		}
	case keyLLMModel:
		settings.LLM.Model = value
	case keyLLMBaseURL:
		settings.LLM.BaseURL = value
	case keyLLMAPIKey:
		settings.LLM.APIKey = value
	case keyTopK:
		settings.Retrieval.TopK, err = strconv.Atoi(value)
	case keyOverFetch:
		settings.Retrieval.OverFetch, err = strconv.Atoi(value)
	case keyVectorWeight:
		settings.Retrieval.VectorWeight, err = strconv.ParseFloat(value, 64)
	case keyKeywordWeight:
		settings.Retrieval.KeywordWeight, err = strconv.ParseFloat(value, 64)
	case keyKeywordCap:
		settings.Retrieval.KeywordCap, err = strconv.Atoi(value)
	case keyMaxContextChars:
		settings.Retrieval.MaxContextChars, err = strconv.Atoi(value)
	case keyRetrievalWeight:
		settings.Confidence.RetrievalWeight, err = strconv.ParseFloat(value, 64)
	case keyDeclaredWeight:
		settings.Confidence.DeclaredWeight, err = strconv.ParseFloat(value, 64)
	case keyMaxOutputTokens:
		settings.Generation.MaxOutputTokens, err = strconv.Atoi(value)
	case keyTemperature:
		settings.Generation.Temperature, err = strconv.ParseFloat(value, 64)
	case keyTimeoutSeconds:
		var secs int
		secs, err = strconv.Atoi(value)
		settings.Generation.Timeout = time.Duration(secs) * time.Second
	case keyIndexDir:
		settings.Storage.IndexDir = value
	case keyAuditLog:
		settings.Storage.AuditLog = value
	case keyAuditDB:
		settings.Storage.AuditDB = value
	case keyServerAddr:
		settings.Server.Addr = value
	case keyServerRateLimit:
		settings.Server.RateLimit, err = strconv.ParseFloat(value, 64)
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	return nil
}

func parseProvider(value string) (domain.AIProvider, error) {
	p := domain.AIProvider(strings.ToLower(value))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid provider: %s", value)
	}
	return p, nil
}

// Validate checks that the current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return validateSettings(settings)
}

func validateSettings(settings *domain.AppSettings) error {
	if !settings.Embedding.Provider.IsValid() || !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q cannot produce embeddings",
			domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	if !settings.LLM.Provider.IsValid() || settings.LLM.Provider == domain.AIProviderHugot {
		return fmt.Errorf("%w: llm provider %q cannot generate text", domain.ErrInvalidInput, settings.LLM.Provider)
	}
	r := settings.Retrieval
	if r.TopK < 1 {
		return fmt.Errorf("%w: retrieval.top_k must be at least 1", domain.ErrInvalidInput)
	}
	if r.VectorWeight < 0 || r.KeywordWeight < 0 || (r.VectorWeight == 0 && r.KeywordWeight == 0) {
		return fmt.Errorf("%w: retrieval weights must be non-negative and not both zero", domain.ErrInvalidInput)
	}
	c := settings.Confidence
	if c.RetrievalWeight < 0 || c.DeclaredWeight < 0 || (c.RetrievalWeight == 0 && c.DeclaredWeight == 0) {
		return fmt.Errorf("%w: confidence weights must be non-negative and not both zero", domain.ErrInvalidInput)
	}
	if settings.Server.RateLimit < 0 {
		return fmt.Errorf("%w: server.rate_limit must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getFloat distinguishes an explicit zero from a missing key.
func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
