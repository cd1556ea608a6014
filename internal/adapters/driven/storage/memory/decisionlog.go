package memory

import (
	"context"
	"sync"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
)

// Ensure DecisionLog implements the interfaces.
var (
	_ driven.DecisionLogger  = (*DecisionLog)(nil)
	_ driven.DecisionHistory = (*DecisionLog)(nil)
)

// DecisionLog keeps audit records in memory. It backs --no-log runs and tests.
type DecisionLog struct {
	mu      sync.RWMutex
	records []domain.AuditRecord
	fail    error
}

// NewDecisionLog creates an empty in-memory log.
func NewDecisionLog() *DecisionLog {
	return &DecisionLog{}
}

// FailWith makes every subsequent Log call return err. Nil restores normal behaviour.
func (l *DecisionLog) FailWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail = err
}

// Log appends a record.
func (l *DecisionLog) Log(_ context.Context, record domain.AuditRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return l.fail
	}
	l.records = append(l.records, record)
	return nil
}

// Recent returns up to limit records, newest first. A limit of 0 returns all.
func (l *DecisionLog) Recent(_ context.Context, limit int) ([]domain.AuditRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.AuditRecord, 0, n)
	for i := len(l.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.records[i])
	}
	return out, nil
}

// Len returns the number of stored records.
func (l *DecisionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
