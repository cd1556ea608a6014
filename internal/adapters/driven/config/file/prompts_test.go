package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
)

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptDecision)
	require.NoError(t, err)

	for _, f := range []string{"decision.txt", "informational.txt", "simplified.txt", "README.md"} {
		assert.FileExists(t, filepath.Join(dir, f))
	}
}

func TestPromptStore_Load_DefaultContent(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	decision, err := store.Load(driven.PromptDecision)
	require.NoError(t, err)
	assert.Contains(t, decision, "Eligible / Not Eligible / Need More Information")
	assert.Contains(t, decision, "{profile}")

	info, err := store.Load(driven.PromptInformational)
	require.NoError(t, err)
	assert.Contains(t, info, "Insufficient information in the provided documents to answer fully.")
	assert.Contains(t, info, "[n]")

	simplified, err := store.Load(driven.PromptSimplified)
	require.NoError(t, err)
	assert.NotContains(t, simplified, "{profile}")
	assert.Contains(t, simplified, "{question}")
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Docs:\n{context}\nQ: {question}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "decision.txt"), []byte(custom+"\n\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptDecision)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_MissingPlaceholderFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "decision.txt"), []byte("No placeholders here"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptDecision)
	require.NoError(t, err)
	want, _ := DefaultPrompt(driven.PromptDecision)
	assert.Equal(t, want, prompt)
}

func TestPromptStore_Load_DeletedFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptSimplified)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "informational.txt")))

	prompt, err := store.Load(driven.PromptInformational)
	require.NoError(t, err)
	want, _ := DefaultPrompt(driven.PromptInformational)
	assert.Equal(t, want, prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent")
	assert.Error(t, err)
}

func TestPromptStore_Reload_ClearsCache(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptDecision)
	require.NoError(t, err)

	updated := "Updated {context} {question}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "decision.txt"), []byte(updated), 0600))

	cached, err := store.Load(driven.PromptDecision)
	require.NoError(t, err)
	assert.NotEqual(t, updated, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptDecision)
	require.NoError(t, err)
	assert.Equal(t, updated, fresh)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	custom := "Mine {context} {question}"
	path := filepath.Join(dir, "informational.txt")
	require.NoError(t, os.WriteFile(path, []byte(custom), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptDecision)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptDecision)
			assert.NoError(t, err)
			assert.NotEmpty(t, prompt)
		}()
	}
	wg.Wait()
}
