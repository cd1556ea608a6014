package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHugot runs a sentence-transformer model in-process.
	AIProviderHugot AIProvider = "hugot"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHugot, AIProviderOllama, AIProviderOpenAI, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHugot
}

// APIKeyEnv returns the environment variable consulted for this provider's key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderGemini:
		return "GEMINI_API_KEY"
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHugot:
		return "Hugot (in-process)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// ModelDir is where downloaded models are cached (for Hugot).
	ModelDir string

	// Dimensions is the embedding vector size.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider == AIProviderHugot || e.Provider == AIProviderOllama
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for Gemini/OpenAI).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderHugot {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings tunes hybrid retrieval.
type RetrievalSettings struct {
	// TopK is the default number of context chunks.
	TopK int

	// OverFetch multiplies TopK when querying the vector index.
	OverFetch int

	// VectorWeight weights the vector similarity component.
	VectorWeight float64

	// KeywordWeight weights the keyword match component.
	KeywordWeight float64

	// KeywordCap is the match count that yields a full keyword score.
	KeywordCap int

	// MaxContextChars is the prompt context budget in characters.
	MaxContextChars int
}

// ConfidenceSettings weights the blend of retrieval and declared confidence.
type ConfidenceSettings struct {
	RetrievalWeight float64
	DeclaredWeight  float64
}

// GenerationSettings configures calls to the generation service.
type GenerationSettings struct {
	MaxOutputTokens int
	Temperature     float64
	Timeout         time.Duration
}

// StorageSettings locates persisted state.
type StorageSettings struct {
	// IndexDir holds index.bin, metadata.json and chunks.json.
	IndexDir string

	// AuditLog is the JSONL decision log path. Empty disables it.
	AuditLog string

	// AuditDB is the SQLite decision store directory. Empty disables it.
	AuditDB string
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr string

	// RateLimit is the allowed requests per second. Zero disables limiting.
	RateLimit float64
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	Retrieval  RetrievalSettings
	Confidence ConfidenceSettings
	Generation GenerationSettings
	Storage    StorageSettings
	Server     ServerSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Storage paths are left empty; the caller fills them relative to the config directory.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderHugot,
			Model:      DefaultEmbeddingModels()[AIProviderHugot],
			Dimensions: 384,
		},
		LLM: LLMSettings{
			Provider: AIProviderGemini,
			Model:    DefaultLLMModels()[AIProviderGemini],
		},
		Retrieval: RetrievalSettings{
			TopK:            5,
			OverFetch:       3,
			VectorWeight:    0.6,
			KeywordWeight:   0.4,
			KeywordCap:      3,
			MaxContextChars: 3000,
		},
		Confidence: ConfidenceSettings{
			RetrievalWeight: 0.6,
			DeclaredWeight:  0.4,
		},
		Generation: GenerationSettings{
			MaxOutputTokens: 1024,
			Temperature:     0,
			Timeout:         60 * time.Second,
		},
		Server: ServerSettings{
			Addr:      ":8080",
			RateLimit: 5,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHugot,
		AIProviderOllama,
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOpenAI,
		AIProviderOllama,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHugot:  "sentence-transformers/all-MiniLM-L6-v2",
		AIProviderOllama: "all-minilm",
	}
}

// DefaultLLMModels returns default models for each generation provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini: "gemini-2.5-flash",
		AIProviderOpenAI: "gpt-4o-mini",
		AIProviderOllama: "llama3.2",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"sentence-transformers/all-MiniLM-L6-v2": 384,
		"all-minilm":                             384,
		"nomic-embed-text":                       768,
		"mxbai-embed-large":                      1024,
	}
}
