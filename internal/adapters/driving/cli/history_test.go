package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

func TestHistoryCmd_Lists(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("history", "--limit", "5")

	require.NoError(t, err)
	assert.Equal(t, 5, testEnv.history.lastLimit)
	assert.Contains(t, out, "Eligible")
	assert.Contains(t, out, "Can my spouse join me?")
	assert.Contains(t, out, "(0.84)")
	assert.Less(t, strings.Index(out, "spouse"), strings.Index(out, "Skilled worker"))
}

func TestHistoryCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("history", "--json")

	require.NoError(t, err)
	var got []domain.AuditRecord
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
}

func TestHistoryCmd_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testEnv.history.records = nil

	out, err := execute("history")
	require.NoError(t, err)
	assert.Contains(t, out, "No decisions recorded yet.")

	out, err = execute("history", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, "[]")
}

func TestHistoryCmd_InvalidLimit(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("history", "--limit", "0")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHistoryCmd_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testEnv.history.err = errBoom

	_, err := execute("history")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading history")
}
