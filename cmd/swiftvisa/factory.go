package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/swiftvisa/swiftvisa-cli/internal/adapters/driven/ai"
	"github.com/swiftvisa/swiftvisa-cli/internal/adapters/driven/config/file"
	storagefile "github.com/swiftvisa/swiftvisa-cli/internal/adapters/driven/storage/file"
	"github.com/swiftvisa/swiftvisa-cli/internal/adapters/driven/storage/memory"
	"github.com/swiftvisa/swiftvisa-cli/internal/adapters/driven/storage/sqlite"
	"github.com/swiftvisa/swiftvisa-cli/internal/adapters/driving/api"
	"github.com/swiftvisa/swiftvisa-cli/internal/adapters/driving/cli"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driving"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/services"
	"github.com/swiftvisa/swiftvisa-cli/internal/logger"
	"github.com/swiftvisa/swiftvisa-cli/internal/normalisers"
	"github.com/swiftvisa/swiftvisa-cli/internal/normalisers/markdown"
	"github.com/swiftvisa/swiftvisa-cli/internal/normalisers/pdf"
	"github.com/swiftvisa/swiftvisa-cli/internal/normalisers/plaintext"
	"github.com/swiftvisa/swiftvisa-cli/internal/postprocessors"
)

// Environment variables consulted at startup.
const (
	envIndexDir  = "SWIFTVISA_INDEX_DIR"
	envConfigDir = "SWIFTVISA_CONFIG_DIR"
)

// Default names inside the config directory.
const (
	defaultIndexDir  = "index"
	defaultAuditLog  = "decisions.jsonl"
	defaultPromptDir = "prompts"
)

// Ensure factory implements the interface.
var _ cli.Factory = (*factory)(nil)

// factory wires adapters into services for the CLI.
type factory struct {
	opts      cli.Options
	configDir string
	settings  *domain.AppSettings
	health    *services.Health

	auditDB  *sqlite.Store
	memLog   *memory.DecisionLog
	aiResult *ai.InitResult
	closers  []func() error

	// getenv reads environment variables. Tests replace it.
	getenv func(string) string
}

func newFactory() *factory {
	return &factory{
		health: services.NewHealth(),
		getenv: os.Getenv,
	}
}

// Settings loads config.toml and resolves storage paths.
func (f *factory) Settings(opts cli.Options) (driving.SettingsService, error) {
	f.opts = opts

	dir := opts.ConfigDir
	if dir == "" {
		dir = f.getenv(envConfigDir)
	}
	if dir == "" {
		var err error
		if dir, err = file.DefaultConfigDir(); err != nil {
			return nil, fmt.Errorf("resolving config directory: %w", err)
		}
	}
	f.configDir = dir

	store, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	svc := services.NewSettingsService(store, ai.NewConfigValidator())

	settings, err := svc.Get()
	if err != nil {
		return nil, err
	}
	f.resolve(settings)
	f.settings = settings

	logger.Debug("Config dir %s, index %s", dir, settings.Storage.IndexDir)
	return svc, nil
}

// resolve fills empty storage paths relative to the config directory and
// applies environment overrides.
func (f *factory) resolve(settings *domain.AppSettings) {
	if env := f.getenv(envIndexDir); env != "" {
		settings.Storage.IndexDir = env
	}
	if settings.Storage.IndexDir == "" {
		settings.Storage.IndexDir = filepath.Join(f.configDir, defaultIndexDir)
	}
	if settings.Storage.AuditLog == "" {
		settings.Storage.AuditLog = filepath.Join(f.configDir, defaultAuditLog)
	}
}

// Query opens the corpus and builds the full pipeline.
func (f *factory) Query(ctx context.Context) (driving.QueryService, error) {
	if f.settings == nil {
		return nil, errors.New("settings not loaded")
	}
	s := f.settings

	corpus, err := storagefile.OpenCorpus(s.Storage.IndexDir)
	if err != nil {
		return nil, err
	}
	f.closers = append(f.closers, corpus.Close)

	result, err := ai.Init(ctx, s)
	if err != nil {
		return nil, err
	}
	f.aiResult = result
	if result.Degraded {
		f.health.ReportFailure(services.ComponentEmbedding,
			fmt.Errorf("%w: %s", domain.ErrEmbeddingUnavailable, strings.Join(result.Warnings, "; ")))
	}

	embedder := services.NewEmbedder(result.EmbeddingService, corpus.Index().Dimensions())
	if result.EmbeddingService != nil && result.EmbeddingService.Dimensions() != embedder.Dimensions() {
		return nil, fmt.Errorf("%w: index has %d dimensions, %s produces %d",
			domain.ErrDimensionMismatch, embedder.Dimensions(),
			result.EmbeddingService.ModelName(), result.EmbeddingService.Dimensions())
	}

	retriever, err := services.NewRetriever(corpus.Index(), corpus, s.Retrieval)
	if err != nil {
		return nil, err
	}

	prompts, err := file.NewPromptStore(filepath.Join(f.configDir, defaultPromptDir))
	if err != nil {
		return nil, err
	}
	templates, err := services.LoadPromptTemplates(prompts)
	if err != nil {
		return nil, fmt.Errorf("loading prompts: %w", err)
	}

	loggers, err := f.decisionLoggers()
	if err != nil {
		return nil, err
	}

	q := services.NewQueryService(
		embedder,
		retriever,
		services.NewPromptBuilder(templates),
		services.NewGenerator(result.LLMService, s.Generation),
		services.NewBlender(s.Confidence),
		s.Retrieval,
	)
	q.SetDecisionLoggers(loggers...)
	q.SetHealthReporter(f.health)

	logger.Debug("Query pipeline ready: %d chunks, %d dimensions, model %s",
		q.IndexSize(), embedder.Dimensions(), result.LLMService.ModelName())
	return q, nil
}

// History reads from sqlite when configured, otherwise from the JSONL log.
func (f *factory) History(context.Context) (driving.HistoryService, error) {
	if f.settings == nil {
		return nil, errors.New("settings not loaded")
	}
	store, err := f.historyStore()
	if err != nil {
		return nil, err
	}
	return services.NewHistoryService(store), nil
}

// Ingest builds the ingestion service. Ingestion needs a working embedder.
func (f *factory) Ingest(context.Context) (driving.IngestService, error) {
	if f.settings == nil {
		return nil, errors.New("settings not loaded")
	}
	s := f.settings

	embedding, err := ai.CreateEmbeddingService(&s.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if embedding == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable)
	}
	f.closers = append(f.closers, embedding.Close)

	pipeline, err := postprocessors.NewDefaultPipeline(nil)
	if err != nil {
		return nil, fmt.Errorf("building post-processors: %w", err)
	}

	registry := normalisers.NewRegistry(plaintext.New(), markdown.New(), pdf.New())
	embedder := services.NewEmbedder(embedding, embedding.Dimensions())
	indexDir := s.Storage.IndexDir

	open := func(reset bool) (driven.CorpusWriter, error) {
		return storagefile.OpenOrCreate(indexDir, embedder.Dimensions(), reset)
	}

	return services.NewIngestService(registry, pipeline, embedder, open), nil
}

// Health returns the failure counter shared by the query pipeline.
func (f *factory) Health() api.HealthSource {
	return f.health
}

// Close releases everything the factory opened.
func (f *factory) Close() {
	if f.aiResult != nil {
		f.aiResult.Close()
	}
	for i := len(f.closers) - 1; i >= 0; i-- {
		if err := f.closers[i](); err != nil {
			logger.Warn("close: %v", err)
		}
	}
	f.closers = nil
	f.aiResult = nil
	f.auditDB = nil
}

// decisionLoggers returns the audit sinks for the query pipeline.
func (f *factory) decisionLoggers() ([]driven.DecisionLogger, error) {
	if f.opts.NoLog {
		return []driven.DecisionLogger{f.memoryLog()}, nil
	}

	var loggers []driven.DecisionLogger
	if f.settings.Storage.AuditLog != "" {
		loggers = append(loggers, storagefile.NewDecisionLog(f.settings.Storage.AuditLog))
	}
	if f.settings.Storage.AuditDB != "" {
		db, err := f.sqliteStore()
		if err != nil {
			return nil, err
		}
		loggers = append(loggers, db)
	}
	return loggers, nil
}

func (f *factory) historyStore() (driven.DecisionHistory, error) {
	switch {
	case f.opts.NoLog:
		return f.memoryLog(), nil
	case f.settings.Storage.AuditDB != "":
		return f.sqliteStore()
	default:
		return storagefile.NewDecisionLog(f.settings.Storage.AuditLog), nil
	}
}

func (f *factory) memoryLog() *memory.DecisionLog {
	if f.memLog == nil {
		f.memLog = memory.NewDecisionLog()
	}
	return f.memLog
}

// sqliteStore opens the audit database once per run.
func (f *factory) sqliteStore() (*sqlite.Store, error) {
	if f.auditDB != nil {
		return f.auditDB, nil
	}
	db, err := sqlite.NewStore(f.settings.Storage.AuditDB)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	f.auditDB = db
	f.closers = append(f.closers, db.Close)
	return db, nil
}
