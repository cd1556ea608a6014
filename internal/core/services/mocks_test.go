package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/swiftvisa/swiftvisa-cli/internal/adapters/driven/vectorindex/flat"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Texts are embedded by looking them up in vectors; unknown texts get fallback.
type mockEmbeddingService struct {
	vectors  map[string][]float32
	fallback []float32
	dims     int
	err      error
	batchErr error
	calls    int
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vectorFor(text)
	}
	return out, nil
}

func (m *mockEmbeddingService) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return append([]float32(nil), v...)
	}
	return append([]float32(nil), m.fallback...)
}

func (m *mockEmbeddingService) Dimensions() int              { return m.dims }
func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockLLM implements driven.LLMService with scripted responses, one per call.
type mockLLM struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
	opts      []driven.GenerateOptions
	block     bool
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	call := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if call < len(m.errs) && m.errs[call] != nil {
		return "", m.errs[call]
	}
	if call < len(m.responses) {
		return m.responses[call], nil
	}
	return "", errors.New("no scripted response")
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// mockChunkStore implements driven.CorpusWriter over a flat index.
type mockChunkStore struct {
	index  driven.VectorIndex
	ids    []string
	meta   map[string]domain.ChunkMeta
	text   map[string]string
	saved  int
	putErr error
}

func newMockChunkStore(dims int) *mockChunkStore {
	return &mockChunkStore{
		index: flat.New(dims),
		meta:  make(map[string]domain.ChunkMeta),
		text:  make(map[string]string),
	}
}

func (s *mockChunkStore) Meta(id string) (domain.ChunkMeta, bool) {
	m, ok := s.meta[id]
	return m, ok
}

func (s *mockChunkStore) Text(id string) string     { return s.text[id] }
func (s *mockChunkStore) IDs() []string             { return append([]string(nil), s.ids...) }
func (s *mockChunkStore) Len() int                  { return len(s.ids) }
func (s *mockChunkStore) Index() driven.VectorIndex { return s.index }

func (s *mockChunkStore) Put(chunk domain.Chunk, embedding []float32) error {
	if s.putErr != nil {
		return s.putErr
	}
	if err := s.index.Add(context.Background(), chunk.ID, embedding); err != nil {
		return err
	}
	s.ids = append(s.ids, chunk.ID)
	s.meta[chunk.ID] = chunk.Meta()
	s.text[chunk.ID] = chunk.Text
	return nil
}

func (s *mockChunkStore) Save() error {
	s.saved++
	return nil
}

// addChunk indexes a chunk with a raw (already unit) vector.
func (s *mockChunkStore) addChunk(id, source, text string, vec []float32) {
	_ = s.Put(domain.Chunk{ID: id, Source: source, Text: text}, vec)
}

// mockHealth records reported failures.
type mockHealth struct {
	mu       sync.Mutex
	failures map[string][]error
}

func (h *mockHealth) ReportFailure(component string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failures == nil {
		h.failures = make(map[string][]error)
	}
	h.failures[component] = append(h.failures[component], err)
}

func (h *mockHealth) count(component string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.failures[component])
}

// mockPromptStore implements driven.PromptStore from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (s *mockPromptStore) Load(name string) (string, error) {
	if p, ok := s.prompts[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (s *mockPromptStore) Reload() {}

// testTemplates are short templates that keep prompt assertions readable.
func testTemplates() PromptTemplates {
	return PromptTemplates{
		Decision:      "DECISION\n{profile}CONTEXT:\n{context}\nQUESTION: {question}",
		Informational: "INFO\nCONTEXT:\n{context}\nQUESTION: {question}",
		Simplified:    "SIMPLE\n{context}\nQ: {question}",
	}
}

// unit returns a unit vector along axis i in dims dimensions.
func unit(dims, i int) []float32 {
	v := make([]float32, dims)
	v[i] = 1
	return v
}

func containsAll(text string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(text, p) {
			return false
		}
	}
	return true
}
