package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/swiftvisa/swiftvisa-cli/internal/adapters/driven/vectorindex/flat"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
	"github.com/swiftvisa/swiftvisa-cli/internal/logger"
)

// Ensure Corpus implements the interfaces.
var (
	_ driven.ChunkStore   = (*Corpus)(nil)
	_ driven.CorpusWriter = (*Corpus)(nil)
)

// File names inside an index directory.
const (
	IndexFile    = "index.bin"
	MetadataFile = "metadata.json"
	ChunksFile   = "chunks.json"
)

// Corpus is the persisted retrieval corpus rooted at one directory.
type Corpus struct {
	mu       sync.RWMutex
	dir      string
	index    *flat.Index
	metadata map[string]domain.ChunkMeta
	texts    map[string]string
	order    []string
}

// NewCorpus creates an empty corpus in dir for vectors of the given dimension.
// Nothing is written until Save.
func NewCorpus(dir string, dimensions int) *Corpus {
	return &Corpus{
		dir:      dir,
		index:    flat.New(dimensions),
		metadata: make(map[string]domain.ChunkMeta),
		texts:    make(map[string]string),
	}
}

// OpenCorpus loads the corpus in dir.
//
// A missing or empty index file yields domain.ErrIndexMissing. Missing or
// corrupt metadata and chunk files load as empty maps.
func OpenCorpus(dir string) (*Corpus, error) {
	indexPath := filepath.Join(dir, IndexFile)
	info, err := os.Stat(indexPath)
	if err != nil || info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrIndexMissing, indexPath)
	}

	index, err := flat.Load(indexPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexMissing, err)
	}
	if index.Len() == 0 {
		return nil, fmt.Errorf("%w: %s holds no vectors", domain.ErrIndexMissing, indexPath)
	}

	c := &Corpus{
		dir:      dir,
		index:    index,
		metadata: make(map[string]domain.ChunkMeta),
		texts:    make(map[string]string),
	}
	if err := readJSON(filepath.Join(dir, MetadataFile), &c.metadata); err != nil {
		logger.Warn("Metadata unreadable, continuing without it: %v", err)
		c.metadata = make(map[string]domain.ChunkMeta)
	}
	if err := readJSON(filepath.Join(dir, ChunksFile), &c.texts); err != nil {
		logger.Warn("Chunk text unreadable, continuing without it: %v", err)
		c.texts = make(map[string]string)
	}
	c.order = index.IDs()

	logger.Debug("Opened corpus %s: %d vectors, %d metadata, %d texts",
		dir, index.Len(), len(c.metadata), len(c.texts))
	return c, nil
}

// OpenOrCreate opens the corpus in dir, or returns an empty one when no index
// exists yet or reset is set.
func OpenOrCreate(dir string, dimensions int, reset bool) (*Corpus, error) {
	if reset {
		return NewCorpus(dir, dimensions), nil
	}
	c, err := OpenCorpus(dir)
	if errors.Is(err, domain.ErrIndexMissing) {
		return NewCorpus(dir, dimensions), nil
	}
	if err != nil {
		return nil, err
	}
	if c.index.Dimensions() != dimensions {
		return nil, fmt.Errorf("%w: corpus has %d dimensions, embedder has %d",
			domain.ErrDimensionMismatch, c.index.Dimensions(), dimensions)
	}
	return c, nil
}

// Dir returns the corpus directory.
func (c *Corpus) Dir() string {
	return c.dir
}

// Index returns the vector index backing the corpus.
func (c *Corpus) Index() driven.VectorIndex {
	return c.index
}

// Meta returns the metadata for id.
func (c *Corpus) Meta(id string) (domain.ChunkMeta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.metadata[id]
	return m, ok
}

// Text returns the chunk text for id, or "" when unknown.
func (c *Corpus) Text(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.texts[id]
}

// IDs returns chunk ids in index order.
func (c *Corpus) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of indexed chunks.
func (c *Corpus) Len() int {
	return c.index.Len()
}

// Put adds a chunk and its embedding.
func (c *Corpus) Put(chunk domain.Chunk, embedding []float32) error {
	if err := c.index.Add(context.Background(), chunk.ID, embedding); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metadata[chunk.ID] = chunk.Meta()
	c.texts[chunk.ID] = chunk.Text
	c.order = append(c.order, chunk.ID)
	return nil
}

// Save writes the index, metadata and chunk text, each atomically.
func (c *Corpus) Save() error {
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := c.index.Save(filepath.Join(c.dir, IndexFile)); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := writeJSON(filepath.Join(c.dir, MetadataFile), c.metadata); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := writeJSON(filepath.Join(c.dir, ChunksFile), c.texts); err != nil {
		return fmt.Errorf("write chunks: %w", err)
	}
	return nil
}

// Close releases the index.
func (c *Corpus) Close() error {
	return c.index.Close()
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// writeJSON writes v to path through a temporary file renamed over the target.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // Already renamed on success.

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
