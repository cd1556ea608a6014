package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeQueries(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "user_queries.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestBatchCmd_HasOutFlag(t *testing.T) {
	flag := batchCmd.Flags().Lookup("out")
	require.NotNil(t, flag)
	assert.Equal(t, "query_results.json", flag.DefValue)
}

func TestBatchCmd_WritesResults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testEnv.query.errFor = map[string]error{"broken": errBoom}

	dir := t.TempDir()
	in := writeQueries(t, dir, `[
		{"query": "Skilled worker salary", "user_profile": {"income": "£29,000"}},
		{"query": "broken"},
		{"query": "Student visa funds"}
	]`)
	outPath := filepath.Join(dir, "results.json")

	out, err := execute("batch", "--out", outPath, in)

	require.NoError(t, err)
	assert.Contains(t, out, "Processing 3 queries")
	assert.Contains(t, out, "[2/3] broken")
	assert.Contains(t, out, "Finished 3 queries (1 failed)")
	assert.Len(t, testEnv.query.requests, 3)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var results []map[string]any
	require.NoError(t, json.Unmarshal(data, &results))
	require.Len(t, results, 3)

	assert.Equal(t, "Skilled worker salary", results[0]["query"])
	profile, ok := results[0]["user_profile"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "£29,000", profile["income"])
	first, ok := results[0]["response"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "not_eligible", first["yes_no"])

	failed, ok := results[1]["response"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "boom", failed["error"])
}

func TestBatchCmd_Errors(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	t.Run("missing file", func(t *testing.T) {
		_, err := execute("batch", filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading queries")
	})

	t.Run("invalid json", func(t *testing.T) {
		in := writeQueries(t, t.TempDir(), `{"query":`)
		_, err := execute("batch", in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing queries")
	})
}
