package flat

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx := New(3)
	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, "0", []float32{1, 0, 0}))
	require.NoError(t, idx.Add(ctx, "1", []float32{0, 1, 0}))
	require.NoError(t, idx.Add(ctx, "2", []float32{0.6, 0.8, 0}))
	require.NoError(t, idx.Add(ctx, "3", []float32{0, 0, 1}))
	return idx
}

func TestIndex_Add_Rejects(t *testing.T) {
	idx := New(3)
	ctx := context.Background()

	err := idx.Add(ctx, "", []float32{1, 0, 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = idx.Add(ctx, "a", []float32{1, 0})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	require.NoError(t, idx.Add(ctx, "a", []float32{1, 0, 0}))
	err = idx.Add(ctx, "a", []float32{0, 1, 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_Add_CopiesVector(t *testing.T) {
	idx := New(2)
	vec := []float32{1, 0}
	require.NoError(t, idx.Add(context.Background(), "a", vec))
	vec[0] = 5

	stored, ok := idx.Vector("a")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 0}, stored)
}

func TestIndex_Search_OrdersByScore(t *testing.T) {
	idx := newTestIndex(t)

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "0", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, "2", hits[1].ChunkID)
	assert.InDelta(t, 0.6, hits[1].Similarity, 1e-6)
}

func TestIndex_Search_TiesKeepInsertionOrder(t *testing.T) {
	idx := New(2)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, idx.Add(ctx, id, []float32{1, 0}))
	}

	hits, err := idx.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "a", hits[0].ChunkID)
	assert.Equal(t, "b", hits[1].ChunkID)
	assert.Equal(t, "c", hits[2].ChunkID)
}

func TestIndex_Search_Bounds(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 4)

	empty := New(3)
	hits, err = empty.Search(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	_, err = idx.Search(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndex_Search_CancelledContext(t *testing.T) {
	idx := newTestIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.Search(ctx, []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndex_IDs_InsertionOrder(t *testing.T) {
	idx := newTestIndex(t)
	assert.Equal(t, []string{"0", "1", "2", "3"}, idx.IDs())
	assert.Equal(t, 3, idx.Dimensions())
	assert.NoError(t, idx.Close())
}

func TestIndex_WriteReadRoundTrip(t *testing.T) {
	idx := newTestIndex(t)

	var buf bytes.Buffer
	n, err := idx.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "SVIX", buf.String()[:4])

	loaded, err := ReadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, idx.IDs(), loaded.IDs())
	assert.Equal(t, idx.Dimensions(), loaded.Dimensions())
	for _, id := range idx.IDs() {
		want, _ := idx.Vector(id)
		got, ok := loaded.Vector(id)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestIndex_SaveLoad(t *testing.T) {
	idx := newTestIndex(t)
	path := filepath.Join(t.TempDir(), "nested", "index.bin")

	require.NoError(t, idx.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)

	hits, err := loaded.Search(context.Background(), []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "1", hits[0].ChunkID)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestReadFrom_BadData(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"wrong magic", []byte("NOPE\x01\x00\x00\x00")},
		{"truncated header", []byte("SVIX\x01\x00")},
		{"bad version", append([]byte("SVIX"), 9, 0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 0)},
		{"zero dimensions", append([]byte("SVIX"), 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0)},
		{"oversized dimensions", append([]byte("SVIX"), 1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 1, 0, 0, 0)},
		{"truncated entry", append([]byte("SVIX"), 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFrom(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, ErrBadFormat)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.bin"))
	assert.Error(t, err)
}
