package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func testRecord(i int) domain.AuditRecord {
	return domain.AuditRecord{
		ID:          fmt.Sprintf("rec-%d", i),
		Timestamp:   time.Date(2026, 3, 1, 12, 0, i, 0, time.UTC),
		Query:       fmt.Sprintf("query %d", i),
		Retrieved:   []domain.AuditHit{{UID: "3", Score: 0.71, Source: "skilled-worker.pdf"}},
		Decision:    domain.DecisionNotEligible,
		Eligibility: domain.EligibilityNotEligible,
		Confidence:  0.82,
		Prompt:      "prompt text",
	}
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	store := setupTestStore(t)
	assert.FileExists(t, store.Path())
}

func TestNewStore_ReopenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Log(context.Background(), testRecord(1)))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	recs, err := second.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestStore_LogAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rec := testRecord(1)
	rec.Profile = &domain.UserProfile{Income: "£29,000", Nationality: "Indian"}
	require.NoError(t, store.Log(ctx, rec))

	got, err := store.Get(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, rec.Query, got.Query)
	assert.Equal(t, rec.Timestamp, got.Timestamp)
	assert.Equal(t, rec.Retrieved, got.Retrieved)
	assert.Equal(t, domain.EligibilityNotEligible, got.Eligibility)
	assert.InDelta(t, 0.82, got.Confidence, 1e-9)
	require.NotNil(t, got.Profile)
	assert.Equal(t, "£29,000", got.Profile.Income)
}

func TestStore_Get_NotFound(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Log_NullDecision(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rec := testRecord(1)
	rec.Decision = ""
	rec.Eligibility = domain.EligibilityUnknown
	rec.Retrieved = nil
	require.NoError(t, store.Log(ctx, rec))

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Decision)
	assert.Nil(t, got.Profile)
	assert.Empty(t, got.Retrieved)
}

func TestStore_Log_DuplicateID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Log(ctx, testRecord(1)))
	assert.Error(t, store.Log(ctx, testRecord(1)))
}

func TestStore_Recent_NewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	for _, i := range []int{3, 1, 5, 2, 4} {
		require.NoError(t, store.Log(ctx, testRecord(i)))
	}

	recs, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "rec-5", recs[0].ID)
	assert.Equal(t, "rec-4", recs[1].ID)
	assert.Equal(t, "rec-3", recs[2].ID)

	all, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestStore_CountByEligibility(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Log(ctx, testRecord(1)))
	require.NoError(t, store.Log(ctx, testRecord(2)))

	eligible := testRecord(3)
	eligible.Eligibility = domain.EligibilityEligible
	require.NoError(t, store.Log(ctx, eligible))

	counts, err := store.CountByEligibility(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.EligibilityNotEligible])
	assert.Equal(t, 1, counts[domain.EligibilityEligible])
}
