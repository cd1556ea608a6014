package api

import (
	"context"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer  *domain.Answer
	err     error
	size    int
	calls   int
	lastReq domain.QueryRequest
}

func (m *mockQueryService) Run(_ context.Context, req domain.QueryRequest) (*domain.Answer, error) {
	m.calls++
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

// mockHealth is a fixed HealthSource.
type mockHealth map[string]int

func (m mockHealth) Snapshot() map[string]int {
	return m
}
