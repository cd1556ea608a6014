package services

import (
	"context"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// DefaultHistoryLimit is used when no positive limit is given.
const DefaultHistoryLimit = 20

// HistoryService reads past decisions from an audit store.
type HistoryService struct {
	store driven.DecisionHistory
}

// NewHistoryService creates a history service over store.
func NewHistoryService(store driven.DecisionHistory) *HistoryService {
	return &HistoryService{store: store}
}

// Recent returns up to limit records, newest first.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if s.store == nil {
		return []domain.AuditRecord{}, nil
	}
	return s.store.Recent(ctx, limit)
}
