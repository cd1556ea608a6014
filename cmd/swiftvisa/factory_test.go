package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/swiftvisa-cli/internal/adapters/driving/cli"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driving"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/services"
)

const fakeDimensions = 384

// fakeOllama serves /api/embed and /api/generate.
// Each text embeds to a one-hot vector chosen by its length.
func fakeOllama(t *testing.T, generated string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		out := make([][]float32, len(req.Input))
		for i, text := range req.Input {
			vec := make([]float32, fakeDimensions)
			vec[len(text)%fakeDimensions] = 1
			out[i] = vec
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": out})
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"response": generated, "done": true})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestFactory(env map[string]string) *factory {
	f := newFactory()
	f.getenv = func(key string) string { return env[key] }
	return f
}

// configureOllama points both providers at url and reloads the settings.
func configureOllama(t *testing.T, f *factory, opts cli.Options, url string) driving.SettingsService {
	t.Helper()
	svc, err := f.Settings(opts)
	require.NoError(t, err)
	for key, value := range map[string]string{
		"embedding.provider": "ollama",
		"embedding.base_url": url,
		"llm.provider":       "ollama",
		"llm.base_url":       url,
	} {
		require.NoError(t, svc.Set(key, value), key)
	}
	svc, err = f.Settings(opts)
	require.NoError(t, err)
	return svc
}

func TestFactory_SettingsResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	f := newTestFactory(nil)

	svc, err := f.Settings(cli.Options{ConfigDir: dir})

	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.Equal(t, filepath.Join(dir, "index"), f.settings.Storage.IndexDir)
	assert.Equal(t, filepath.Join(dir, "decisions.jsonl"), f.settings.Storage.AuditLog)
	assert.Empty(t, f.settings.Storage.AuditDB)
}

func TestFactory_SettingsEnvironment(t *testing.T) {
	dir := t.TempDir()
	indexDir := filepath.Join(t.TempDir(), "shared-index")
	f := newTestFactory(map[string]string{
		envConfigDir: dir,
		envIndexDir:  indexDir,
	})

	_, err := f.Settings(cli.Options{})

	require.NoError(t, err)
	assert.Equal(t, dir, f.configDir)
	assert.Equal(t, indexDir, f.settings.Storage.IndexDir)
}

func TestFactory_RequiresSettings(t *testing.T) {
	f := newTestFactory(nil)
	ctx := context.Background()

	_, err := f.Query(ctx)
	assert.Error(t, err)
	_, err = f.History(ctx)
	assert.Error(t, err)
	_, err = f.Ingest(ctx)
	assert.Error(t, err)
}

func TestFactory_QueryWithoutIndex(t *testing.T) {
	srv := fakeOllama(t, "Decision: Eligible")
	f := newTestFactory(nil)
	defer f.Close()
	configureOllama(t, f, cli.Options{ConfigDir: t.TempDir()}, srv.URL)

	_, err := f.Query(context.Background())

	assert.ErrorIs(t, err, domain.ErrIndexMissing)
}

func TestFactory_QueryRequiresAPIKey(t *testing.T) {
	srv := fakeOllama(t, "")
	dir := t.TempDir()
	f := newTestFactory(nil)
	defer f.Close()
	svc := configureOllama(t, f, cli.Options{ConfigDir: dir}, srv.URL)

	ingest, err := f.Ingest(context.Background())
	require.NoError(t, err)
	docs := writeGuidance(t)
	_, err = ingest.Ingest(context.Background(), driving.IngestRequest{Paths: []string{docs}})
	require.NoError(t, err)

	require.NoError(t, svc.Set("llm.provider", "gemini"))
	_, err = f.Settings(cli.Options{ConfigDir: dir})
	require.NoError(t, err)
	t.Setenv("GEMINI_API_KEY", "")

	_, err = f.Query(context.Background())

	assert.ErrorIs(t, err, domain.ErrAPIKeyMissing)
}

func writeGuidance(t *testing.T) string {
	t.Helper()
	docs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docs, "skilled_worker.txt"), []byte(
		"Skilled Worker visa. You must be paid at least £38,700 per year. "+
			"Your job must be on the eligible occupations list."), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "family.md"), []byte(
		"# Family visa\n\nYour partner must meet the English language requirement."), 0o600))
	return docs
}

func TestFactory_EndToEnd(t *testing.T) {
	srv := fakeOllama(t, "Decision: Eligible\nExplanation: The salary meets the threshold [1].\nConfidence: 0.8")
	dir := t.TempDir()
	f := newTestFactory(nil)
	defer f.Close()
	configureOllama(t, f, cli.Options{ConfigDir: dir}, srv.URL)
	ctx := context.Background()

	ingest, err := f.Ingest(ctx)
	require.NoError(t, err)
	report, err := ingest.Ingest(ctx, driving.IngestRequest{Paths: []string{writeGuidance(t)}})
	require.NoError(t, err)
	assert.Equal(t, 2, report.FilesSeen)
	assert.Positive(t, report.ChunksAdded)
	assert.FileExists(t, filepath.Join(dir, "index", "index.bin"))

	query, err := f.Query(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.IndexSize, query.IndexSize())

	answer, err := query.Run(ctx, domain.QueryRequest{Query: "I earn £40,000 as a software engineer. Am I eligible?"})
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionEligible, answer.Parsed.Decision)
	assert.Equal(t, domain.EligibilityEligible, answer.YesNo)
	assert.False(t, answer.Degraded)
	assert.NotEmpty(t, answer.Retrieved)
	assert.Empty(t, f.Health().Snapshot())

	history, err := f.History(ctx)
	require.NoError(t, err)
	records, err := history.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.DecisionEligible, records[0].Decision)
	assert.FileExists(t, filepath.Join(dir, "decisions.jsonl"))
}

func TestFactory_AuditDatabase(t *testing.T) {
	srv := fakeOllama(t, "Decision: Not Eligible\nExplanation: Salary too low.")
	dir := t.TempDir()
	f := newTestFactory(nil)
	defer f.Close()
	svc := configureOllama(t, f, cli.Options{ConfigDir: dir}, srv.URL)
	require.NoError(t, svc.Set("storage.audit_db", filepath.Join(dir, "audit")))
	_, err := f.Settings(cli.Options{ConfigDir: dir})
	require.NoError(t, err)
	ctx := context.Background()

	ingest, err := f.Ingest(ctx)
	require.NoError(t, err)
	_, err = ingest.Ingest(ctx, driving.IngestRequest{Paths: []string{writeGuidance(t)}})
	require.NoError(t, err)

	query, err := f.Query(ctx)
	require.NoError(t, err)
	_, err = query.Run(ctx, domain.QueryRequest{Query: "I earn £20,000. Can I get a Skilled Worker visa?"})
	require.NoError(t, err)

	history, err := f.History(ctx)
	require.NoError(t, err)
	records, err := history.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.EligibilityNotEligible, records[0].Eligibility)

	// Both sinks received the record.
	assert.FileExists(t, filepath.Join(dir, "decisions.jsonl"))
	assert.NotNil(t, f.auditDB)
}

func TestFactory_NoLog(t *testing.T) {
	srv := fakeOllama(t, "Decision: Eligible")
	dir := t.TempDir()
	f := newTestFactory(nil)
	defer f.Close()
	opts := cli.Options{ConfigDir: dir, NoLog: true}
	configureOllama(t, f, opts, srv.URL)
	ctx := context.Background()

	ingest, err := f.Ingest(ctx)
	require.NoError(t, err)
	_, err = ingest.Ingest(ctx, driving.IngestRequest{Paths: []string{writeGuidance(t)}})
	require.NoError(t, err)

	query, err := f.Query(ctx)
	require.NoError(t, err)
	_, err = query.Run(ctx, domain.QueryRequest{Query: "Can I bring my partner?"})
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "decisions.jsonl"))

	history, err := f.History(ctx)
	require.NoError(t, err)
	records, err := history.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFactory_DimensionMismatch(t *testing.T) {
	srv := fakeOllama(t, "Decision: Eligible")
	dir := t.TempDir()
	f := newTestFactory(nil)
	defer f.Close()
	svc := configureOllama(t, f, cli.Options{ConfigDir: dir}, srv.URL)
	ctx := context.Background()

	ingest, err := f.Ingest(ctx)
	require.NoError(t, err)
	_, err = ingest.Ingest(ctx, driving.IngestRequest{Paths: []string{writeGuidance(t)}})
	require.NoError(t, err)

	require.NoError(t, svc.Set("embedding.model", "nomic-embed-text"))
	_, err = f.Settings(cli.Options{ConfigDir: dir})
	require.NoError(t, err)

	_, err = f.Query(ctx)

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestFactory_HealthIsShared(t *testing.T) {
	f := newTestFactory(nil)
	f.health.ReportFailure(services.ComponentLLM, assert.AnError)

	assert.Equal(t, map[string]int{services.ComponentLLM: 1}, f.Health().Snapshot())
}
