package driving

import (
	"context"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

// HistoryService lists past decisions from the audit log.
type HistoryService interface {
	// Recent returns up to limit audit records, newest first.
	Recent(ctx context.Context, limit int) ([]domain.AuditRecord, error)
}
