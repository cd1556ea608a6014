package flat

import (
	"container/heap"
	"context"
	"fmt"
	"sync"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an exact inner-product index over fixed-dimension vectors.
// It is safe for concurrent use.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	ids        []string
	vectors    [][]float32
	positions  map[string]int
}

// New creates an empty index for vectors of the given dimension.
func New(dimensions int) *Index {
	return &Index{
		dimensions: dimensions,
		positions:  make(map[string]int),
	}
}

// Add inserts a vector. Empty or duplicate ids and wrong dimensions are rejected.
func (idx *Index) Add(_ context.Context, chunkID string, embedding []float32) error {
	if chunkID == "" {
		return fmt.Errorf("flat: %w: empty id", domain.ErrInvalidInput)
	}
	if len(embedding) != idx.dimensions {
		return fmt.Errorf("flat: %w: got %d, want %d", domain.ErrDimensionMismatch, len(embedding), idx.dimensions)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.positions[chunkID]; exists {
		return fmt.Errorf("flat: %w: duplicate id %q", domain.ErrInvalidInput, chunkID)
	}

	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	idx.positions[chunkID] = len(idx.ids)
	idx.ids = append(idx.ids, chunkID)
	idx.vectors = append(idx.vectors, vec)
	return nil
}

// Search returns up to k hits by descending inner product. Equal scores keep insertion order.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) != idx.dimensions {
		return nil, fmt.Errorf("flat: %w: query has %d, want %d", domain.ErrDimensionMismatch, len(query), idx.dimensions)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k <= 0 || len(idx.ids) == 0 {
		return []driven.VectorHit{}, nil
	}

	// Min-heap of the best k; the root is the weakest kept candidate.
	h := &hitHeap{}
	heap.Init(h)
	for i, vec := range idx.vectors {
		c := candidate{pos: i, score: dot(query, vec)}
		if h.Len() < k {
			heap.Push(h, c)
		} else if (*h)[0].weaker(c) {
			heap.Pop(h)
			heap.Push(h, c)
		}
	}

	hits := make([]driven.VectorHit, h.Len())
	for i := len(hits) - 1; i >= 0; i-- {
		c := heap.Pop(h).(candidate)
		hits[i] = driven.VectorHit{ChunkID: idx.ids[c.pos], Similarity: c.score}
	}
	return hits, nil
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.ids)
}

// Dimensions returns the vector size accepted by the index.
func (idx *Index) Dimensions() int {
	return idx.dimensions
}

// IDs returns every indexed id in insertion order.
func (idx *Index) IDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]string, len(idx.ids))
	copy(out, idx.ids)
	return out
}

// Vector returns a copy of the stored vector for id.
func (idx *Index) Vector(id string) ([]float32, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	pos, ok := idx.positions[id]
	if !ok {
		return nil, false
	}
	out := make([]float32, idx.dimensions)
	copy(out, idx.vectors[pos])
	return out, true
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

type candidate struct {
	pos   int
	score float64
}

// weaker reports whether c ranks below other. Later insertion loses ties.
func (c candidate) weaker(other candidate) bool {
	if c.score != other.score {
		return c.score < other.score
	}
	return c.pos > other.pos
}

type hitHeap []candidate

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return h[i].weaker(h[j]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) {
	*h = append(*h, x.(candidate))
}

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
