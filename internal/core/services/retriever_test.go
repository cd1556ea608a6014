package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/swiftvisa-cli/internal/adapters/driven/vectorindex/flat"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
)

// failingIndex wraps a real index and fails every search.
type failingIndex struct {
	driven.VectorIndex
}

func (f *failingIndex) Search(_ context.Context, _ []float32, _ int) ([]driven.VectorHit, error) {
	return nil, fmt.Errorf("index corrupted")
}

// duplicateIndex returns the same hit several times.
type duplicateIndex struct {
	driven.VectorIndex
	hits []driven.VectorHit
}

func (d *duplicateIndex) Search(_ context.Context, _ []float32, _ int) ([]driven.VectorHit, error) {
	return d.hits, nil
}

func newTestCorpus(t *testing.T) *mockChunkStore {
	t.Helper()
	store := newMockChunkStore(4)
	store.addChunk("0", "skilled_worker.pdf", "Applicants need a salary of at least £38,700 from a licensed sponsor.", unit(4, 0))
	store.addChunk("1", "skilled_worker.pdf", "Your employer must hold a sponsorship licence.", unit(4, 1))
	store.addChunk("2", "student.pdf", "Students must show funds held for 28 days.", unit(4, 2))
	store.addChunk("3", "visitor.pdf", "Visitors cannot take paid work.", unit(4, 3))
	return store
}

func newTestRetriever(t *testing.T, store *mockChunkStore) *Retriever {
	t.Helper()
	r, err := NewRetriever(store.Index(), store, domain.DefaultAppSettings().Retrieval)
	require.NoError(t, err)
	return r
}

func TestNewRetriever_EmptyIndex(t *testing.T) {
	_, err := NewRetriever(flat.New(4), nil, domain.RetrievalSettings{})
	assert.ErrorIs(t, err, domain.ErrIndexMissing)

	_, err = NewRetriever(nil, nil, domain.RetrievalSettings{})
	assert.ErrorIs(t, err, domain.ErrIndexMissing)
}

func TestNewRetriever_FillsDefaults(t *testing.T) {
	store := newTestCorpus(t)
	r, err := NewRetriever(store.Index(), store, domain.RetrievalSettings{})
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings().Retrieval
	assert.Equal(t, defaults.TopK, r.settings.TopK)
	assert.Equal(t, defaults.OverFetch, r.settings.OverFetch)
	assert.Equal(t, defaults.VectorWeight, r.settings.VectorWeight)
	assert.Equal(t, defaults.KeywordWeight, r.settings.KeywordWeight)
	assert.Equal(t, 4, r.Size())
}

func TestRetriever_Retrieve_HybridScore(t *testing.T) {
	store := newTestCorpus(t)
	r := newTestRetriever(t, store)

	results, err := r.Retrieve(context.Background(), "What salary do I need?", 2, unit(4, 0))
	require.NoError(t, err)
	require.Len(t, results, 2)

	top := results[0]
	assert.Equal(t, "0", top.UID)
	assert.Equal(t, "skilled_worker.pdf", top.Meta.Source)
	assert.InDelta(t, 1.0, top.VectorScore, 1e-9)
	// One of three capped keyword matches ("salary").
	assert.InDelta(t, 1.0/3.0, top.KeywordScore, 1e-9)
	assert.InDelta(t, 0.6+0.4/3.0, top.Score, 1e-9)
}

func TestRetriever_Retrieve_ExactlyTopKUniqueSorted(t *testing.T) {
	store := newTestCorpus(t)
	r := newTestRetriever(t, store)

	results, err := r.Retrieve(context.Background(), "visa", 3, unit(4, 2))
	require.NoError(t, err)
	require.Len(t, results, 3)

	seen := make(map[string]bool)
	for i, res := range results {
		assert.False(t, seen[res.UID], "duplicate %s", res.UID)
		seen[res.UID] = true
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Score, res.Score)
		}
	}
	assert.Equal(t, "2", results[0].UID)
}

func TestRetriever_Retrieve_PadsSmallResultSets(t *testing.T) {
	store := newTestCorpus(t)
	r := newTestRetriever(t, store)

	// The flat index returns every vector, so force a short hit list.
	r.index = &duplicateIndex{VectorIndex: store.Index(), hits: []driven.VectorHit{{ChunkID: "3", Similarity: 0.9}}}

	results, err := r.Retrieve(context.Background(), "work", 3, unit(4, 3))
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "3", results[0].UID)
	assert.False(t, results[0].Padded)
	assert.Equal(t, "0", results[1].UID)
	assert.True(t, results[1].Padded)
	assert.Equal(t, 0.0, results[1].Score)
	assert.Equal(t, "1", results[2].UID)
}

func TestRetriever_Retrieve_DeduplicatesHits(t *testing.T) {
	store := newTestCorpus(t)
	r := newTestRetriever(t, store)
	r.index = &duplicateIndex{VectorIndex: store.Index(), hits: []driven.VectorHit{
		{ChunkID: "1", Similarity: 0.9},
		{ChunkID: "1", Similarity: 0.8},
		{ChunkID: "2", Similarity: 0.5},
	}}

	results, err := r.Retrieve(context.Background(), "anything", 2, unit(4, 1))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "1", results[0].UID)
	assert.InDelta(t, 0.54, results[0].Score, 1e-9)
	assert.Equal(t, "2", results[1].UID)
}

func TestRetriever_Retrieve_TopKLargerThanCorpus(t *testing.T) {
	store := newTestCorpus(t)
	r := newTestRetriever(t, store)

	results, err := r.Retrieve(context.Background(), "visa", 10, unit(4, 0))
	require.NoError(t, err)
	assert.Len(t, results, 4)
}

func TestRetriever_Retrieve_ZeroVectorUsesLexicalScoring(t *testing.T) {
	store := newTestCorpus(t)
	r := newTestRetriever(t, store)

	results, err := r.Retrieve(context.Background(), "sponsorship licence", 2, make([]float32, 4))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "1", results[0].UID)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestRetriever_Retrieve_SearchFailureStillPads(t *testing.T) {
	store := newTestCorpus(t)
	r := newTestRetriever(t, store)
	r.index = &failingIndex{VectorIndex: store.Index()}

	results, err := r.Retrieve(context.Background(), "salary", 2, unit(4, 0))
	require.Error(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.True(t, res.Padded)
		assert.Equal(t, 0.0, res.Score)
	}
}

func TestRetriever_Retrieve_UnknownIDResolvesEmpty(t *testing.T) {
	store := newTestCorpus(t)
	r := newTestRetriever(t, store)
	r.index = &duplicateIndex{VectorIndex: store.Index(), hits: []driven.VectorHit{{ChunkID: "ghost", Similarity: 0.7}}}

	results, err := r.Retrieve(context.Background(), "q", 1, unit(4, 0))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ghost", results[0].UID)
	assert.True(t, results[0].Meta.IsZero())
	assert.Empty(t, results[0].Text)
}

func TestDetectKeywords(t *testing.T) {
	keywords := DetectKeywords("My employer will sponsor me and my salary is 40k. I have a passport.")
	assert.Equal(t, []string{"salary", "40k", "sponsor", "employer", "passport"}, keywords)
	assert.Empty(t, DetectKeywords("hello"))
}

func TestKeywordScore(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		limit    int
		want     float64
	}{
		{"no keywords", "salary", nil, 3, 0},
		{"empty text", "", []string{"salary"}, 3, 0},
		{"one of three", "Salary rules", []string{"salary"}, 3, 1.0 / 3.0},
		{"capped", "salary income sponsor employer", []string{"salary", "income", "sponsor", "employer"}, 3, 1},
		{"limit defaults to keyword count", "salary", []string{"salary", "income"}, 0, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, KeywordScore(tt.text, tt.keywords, tt.limit), 1e-9)
		})
	}
}
