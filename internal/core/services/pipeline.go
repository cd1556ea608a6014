package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driving"
	"github.com/swiftvisa/swiftvisa-cli/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// Component names reported to the HealthReporter.
const (
	ComponentEmbedding   = "embedding"
	ComponentVectorIndex = "vector_index"
	ComponentLLM         = "llm"
	ComponentDecisionLog = "decision_log"
)

// QueryService runs the retrieval-and-decision pipeline for one query at a time.
type QueryService struct {
	embedder  *Embedder
	retriever *Retriever
	builder   *PromptBuilder
	generator *Generator
	blender   Blender
	settings  domain.RetrievalSettings

	loggers []driven.DecisionLogger
	health  driven.HealthReporter
	now     func() time.Time
	newID   func() string
}

// NewQueryService creates a query service.
// Loggers and a health reporter are optional and set separately.
func NewQueryService(
	embedder *Embedder,
	retriever *Retriever,
	builder *PromptBuilder,
	generator *Generator,
	blender Blender,
	settings domain.RetrievalSettings,
) *QueryService {
	if embedder == nil && retriever != nil {
		embedder = NewEmbedder(nil, retriever.index.Dimensions())
	}
	if settings.MaxContextChars <= 0 {
		settings.MaxContextChars = domain.DefaultAppSettings().Retrieval.MaxContextChars
	}
	return &QueryService{
		embedder:  embedder,
		retriever: retriever,
		builder:   builder,
		generator: generator,
		blender:   blender,
		settings:  settings,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// SetDecisionLoggers sets the audit sinks every answer is appended to.
func (s *QueryService) SetDecisionLoggers(loggers ...driven.DecisionLogger) {
	s.loggers = loggers
}

// SetHealthReporter sets where non-fatal failures are counted.
func (s *QueryService) SetHealthReporter(health driven.HealthReporter) {
	s.health = health
}

// SetClock overrides the audit timestamp source.
func (s *QueryService) SetClock(now func() time.Time) {
	s.now = now
}

// IndexSize returns the number of chunks available to the retriever.
func (s *QueryService) IndexSize() int {
	if s.retriever == nil {
		return 0
	}
	return s.retriever.Size()
}

// Run answers one query. Only an empty query or an already cancelled context
// produce an error; every later failure is folded into the Answer.
func (s *QueryService) Run(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.retriever == nil || s.embedder == nil {
		return nil, domain.ErrIndexMissing
	}

	mode := req.Mode
	if mode == "" {
		mode = domain.PromptModeDecision
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, mode)
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.settings.TopK
	}

	logger.Section("Query Pipeline")
	logger.Debug("Query: %q (top_k=%d, mode=%s)", query, topK, mode)

	answer := &domain.Answer{}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		answer.Degraded = true
		s.reportFailure(ComponentEmbedding, err)
	}

	results, err := s.retriever.Retrieve(ctx, query, topK, vec)
	if err != nil {
		s.reportFailure(ComponentVectorIndex, err)
	}

	prompt := s.builder.Build(query, results, req.Profile, s.settings.MaxContextChars, mode)
	simplified := s.builder.BuildSimplified(query, results, s.settings.MaxContextChars)
	logger.Debug("Prompt: %d chars", len(prompt))

	raw := s.generator.Generate(ctx, prompt, simplified)
	if IsErrorText(raw) {
		s.reportFailure(ComponentLLM, errors.New(strings.TrimSpace(strings.TrimPrefix(raw, ErrorMarker))))
	}

	parsed := ParseDecision(raw)
	parsed = ReconcileFacts(query, req.Profile, parsed)

	scores := domain.Scores(results)
	answer.Parsed = parsed
	answer.FinalConfidence = s.blender.Blend(scores, parsed.Confidence)
	answer.RetrievalScoreMean = MeanScore(scores)
	answer.Retrieved = domain.Summaries(results)
	answer.RawLLM = raw
	answer.YesNo = domain.ClassifyEligibility(parsed.Decision)
	answer.Results = results
	answer.Prompt = prompt

	logger.Debug("Decision: %q (%s), confidence %.3f", parsed.Decision, answer.YesNo, answer.FinalConfidence)

	s.audit(ctx, query, req.Profile, answer)
	return answer, nil
}

// audit appends the answer to every logger. Failures are reported, never returned.
func (s *QueryService) audit(ctx context.Context, query string, profile *domain.UserProfile, answer *domain.Answer) {
	if len(s.loggers) == 0 {
		return
	}
	record := domain.NewAuditRecord(s.newID(), s.now(), query, profile, answer)
	logCtx := context.WithoutCancel(ctx)
	for _, l := range s.loggers {
		if err := l.Log(logCtx, record); err != nil {
			s.reportFailure(ComponentDecisionLog, err)
		}
	}
}

func (s *QueryService) reportFailure(component string, err error) {
	if s.health != nil {
		s.health.ReportFailure(component, err)
		return
	}
	logger.Warn("%s failure: %v", component, err)
}
