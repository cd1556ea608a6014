package postprocessors

import (
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
	"github.com/swiftvisa/swiftvisa-cli/internal/postprocessors/chunker"
	"github.com/swiftvisa/swiftvisa-cli/internal/postprocessors/cleaner"
)

// DefaultOrder is the processor order used for ingestion.
var DefaultOrder = []string{"cleaner", "chunker"}

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("cleaner", buildCleaner)
	r.Register("chunker", buildChunker)
}

// NewDefaultPipeline returns the cleaner followed by the sentence chunker.
func NewDefaultPipeline(configs map[string]map[string]any) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.BuildPipeline(DefaultOrder, configs)
}

func buildCleaner(_ map[string]any) (driven.PostProcessor, error) {
	return cleaner.New(), nil
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - max_words (int): Words per chunk (default: 500)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option
	if size := getIntFromConfig(cfg, "max_words"); size > 0 {
		opts = append(opts, chunker.WithMaxWords(size))
	}
	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
