package mcp

import (
	"context"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer  *domain.Answer
	err     error
	size    int
	lastReq domain.QueryRequest
}

func (m *mockQueryService) Run(_ context.Context, req domain.QueryRequest) (*domain.Answer, error) {
	m.lastReq = req
	return m.answer, m.err
}

func (m *mockQueryService) IndexSize() int {
	return m.size
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

func sampleAnswer() *domain.Answer {
	conf := 0.9
	return &domain.Answer{
		Parsed: domain.DecisionRecord{
			Decision:        domain.DecisionNotEligible,
			Explanation:     "The salary is below the threshold.",
			Citations:       []int{1},
			AdditionalFacts: []string{"Occupation code"},
			Confidence:      &conf,
		},
		FinalConfidence: 0.84,
		Retrieved: []domain.RetrievedChunk{
			{UID: "4", Score: 0.71, Meta: domain.ChunkMeta{Source: "skilled_worker.pdf", ChunkID: "4"}},
			{UID: "9", Score: 0.42, Meta: domain.ChunkMeta{Source: "appendix.pdf", ChunkID: "9"}},
		},
		RawLLM: "  Decision: Not Eligible  ",
		YesNo:  domain.EligibilityNotEligible,
	}
}
