package cli

import (
	"bytes"
	"context"
	"errors"

	"github.com/swiftvisa/swiftvisa-cli/internal/adapters/driven/storage/memory"
	"github.com/swiftvisa/swiftvisa-cli/internal/adapters/driving/api"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driving"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/services"
)

// --- Mock implementations ---

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer   *domain.Answer
	err      error
	errFor   map[string]error
	size     int
	requests []domain.QueryRequest
}

func (m *mockQueryService) Run(_ context.Context, req domain.QueryRequest) (*domain.Answer, error) {
	m.requests = append(m.requests, req)
	if err, ok := m.errFor[req.Query]; ok {
		return nil, err
	}
	return m.answer, m.err
}

func (m *mockQueryService) IndexSize() int {
	return m.size
}

func (m *mockQueryService) lastRequest() domain.QueryRequest {
	if len(m.requests) == 0 {
		return domain.QueryRequest{}
	}
	return m.requests[len(m.requests)-1]
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	records   []domain.AuditRecord
	err       error
	lastLimit int
}

func (m *mockHistoryService) Recent(_ context.Context, limit int) ([]domain.AuditRecord, error) {
	m.lastLimit = limit
	return m.records, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	report   *domain.IngestReport
	err      error
	requests []driving.IngestRequest
}

func (m *mockIngestService) Ingest(_ context.Context, req driving.IngestRequest) (*domain.IngestReport, error) {
	m.requests = append(m.requests, req)
	return m.report, m.err
}

// mockFactory is a mock implementation of Factory.
type mockFactory struct {
	settings   driving.SettingsService
	query      driving.QueryService
	history    driving.HistoryService
	ingest     driving.IngestService
	health     api.HealthSource
	queryErr   error
	historyErr error
	ingestErr  error

	opts   Options
	built  []string
	closed bool
}

func (f *mockFactory) Settings(opts Options) (driving.SettingsService, error) {
	f.opts = opts
	f.built = append(f.built, needSettings)
	return f.settings, nil
}

func (f *mockFactory) Query(context.Context) (driving.QueryService, error) {
	f.built = append(f.built, needQuery)
	return f.query, f.queryErr
}

func (f *mockFactory) History(context.Context) (driving.HistoryService, error) {
	f.built = append(f.built, needHistory)
	return f.history, f.historyErr
}

func (f *mockFactory) Ingest(context.Context) (driving.IngestService, error) {
	f.built = append(f.built, needIngest)
	return f.ingest, f.ingestErr
}

func (f *mockFactory) Health() api.HealthSource { return f.health }
func (f *mockFactory) Close()                   { f.closed = true }

// --- Test fixtures ---

type testServices struct {
	query    *mockQueryService
	history  *mockHistoryService
	ingest   *mockIngestService
	config   *memory.ConfigStore
	settings *services.SettingsService
}

var testEnv *testServices

// setupTestServices installs mock services and returns a cleanup function
// that restores the previous services and resets command flags.
func setupTestServices() func() {
	oldFactory := factory
	oldSettings := settingsService
	oldQuery := queryService
	oldHistory := historyService
	oldIngest := ingestService
	oldHealth := healthSource

	config := memory.NewConfigStore()
	testEnv = &testServices{
		query:    &mockQueryService{answer: sampleAnswer(), size: 12},
		history:  &mockHistoryService{records: sampleRecords()},
		ingest:   &mockIngestService{report: &domain.IngestReport{FilesSeen: 3, ChunksAdded: 7, IndexSize: 7}},
		config:   config,
		settings: services.NewSettingsService(config, nil),
	}

	factory = nil
	settingsService = testEnv.settings
	queryService = testEnv.query
	historyService = testEnv.history
	ingestService = testEnv.ingest
	healthSource = nil

	return func() {
		factory = oldFactory
		settingsService = oldSettings
		queryService = oldQuery
		historyService = oldHistory
		ingestService = oldIngest
		healthSource = oldHealth
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}
}

// resetFlags restores package-level flag variables to their defaults.
func resetFlags() {
	verbose, configDir, noColor, noLog = false, "", false, false
	askTopK, askMode, askJSON = 0, string(domain.PromptModeDecision), false
	askAge, askIncome, askFamilyStatus, askNationality = "", "", "", ""
	batchOut = "query_results.json"
	ingestReset, ingestWatch = false, false
	historyLimit, historyJSON = 10, false
	serveAddr = ""
}

// execute runs the root command with args and returns its combined output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func sampleAnswer() *domain.Answer {
	conf := 0.9
	return &domain.Answer{
		Parsed: domain.DecisionRecord{
			Decision:        domain.DecisionNotEligible,
			Explanation:     "The salary of £29,000 is below the £38,700 threshold.",
			Citations:       []int{1, 2},
			AdditionalFacts: []string{"Occupation code"},
			Confidence:      &conf,
		},
		FinalConfidence: 0.84,
		Retrieved: []domain.RetrievedChunk{
			{UID: "4", Score: 0.71, Meta: domain.ChunkMeta{Source: "skilled_worker.pdf", ChunkID: "4"}},
			{UID: "9", Score: 0.42, Meta: domain.ChunkMeta{Source: "appendix.pdf", ChunkID: "9"}},
		},
		RawLLM: "Decision: Not Eligible\nExplanation: The salary is below the threshold.",
		YesNo:  domain.EligibilityNotEligible,
	}
}

func sampleRecords() []domain.AuditRecord {
	return []domain.AuditRecord{
		{ID: "b", Query: "Can my spouse join me?", Decision: domain.DecisionEligible,
			Eligibility: domain.EligibilityEligible, Confidence: 0.77},
		{ID: "a", Query: "Skilled worker salary", Decision: domain.DecisionNotEligible,
			Eligibility: domain.EligibilityNotEligible, Confidence: 0.84},
	}
}

var errBoom = errors.New("boom")
