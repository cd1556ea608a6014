package driven

import (
	"context"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

// DecisionLogger appends one audit record per answered query.
// Implementations must use append semantics so a failed write never
// corrupts records written before it.
type DecisionLogger interface {
	// Log appends a record.
	Log(ctx context.Context, record domain.AuditRecord) error
}

// DecisionHistory reads audit records back, most recent first.
type DecisionHistory interface {
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]domain.AuditRecord, error)
}

// HealthReporter receives non-fatal failures so they are counted rather than discarded.
type HealthReporter interface {
	// ReportFailure records a failure for the named component.
	ReportFailure(component string, err error)
}
