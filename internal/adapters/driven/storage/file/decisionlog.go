package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
	"github.com/swiftvisa/swiftvisa-cli/internal/logger"
)

// Ensure DecisionLog implements the interfaces.
var (
	_ driven.DecisionLogger  = (*DecisionLog)(nil)
	_ driven.DecisionHistory = (*DecisionLog)(nil)
)

// maxRecordBytes bounds a single JSONL line when reading the log back.
const maxRecordBytes = 1 << 20

// DecisionLog appends audit records to a JSON Lines file.
// Writes from several processes are serialised by a lock file next to the log.
// The flock handle is not exclusive within one process, so mu serialises
// goroutines sharing the log.
type DecisionLog struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewDecisionLog creates a log at path. The file is created on first write.
func NewDecisionLog(path string) *DecisionLog {
	return &DecisionLog{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the log file path.
func (l *DecisionLog) Path() string {
	return l.path
}

// Log appends one record. The file is opened and closed for every write.
func (l *DecisionLog) Log(_ context.Context, record domain.AuditRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("decision log: encode: %w", err)
	}
	line = append(line, '\n')

	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("decision log: create dir: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.lock.Lock(); err != nil {
		return fmt.Errorf("decision log: lock: %w", err)
	}
	defer func() {
		if err := l.lock.Unlock(); err != nil {
			logger.Warn("decision log: unlock: %v", err)
		}
	}()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("decision log: open: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("decision log: write: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("decision log: close: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. Unreadable lines are skipped.
func (l *DecisionLog) Recent(_ context.Context, limit int) ([]domain.AuditRecord, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.AuditRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decision log: open: %w", err)
	}
	defer f.Close()

	var records []domain.AuditRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec domain.AuditRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			logger.Debug("Skipping unreadable decision log line: %v", err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("decision log: read: %w", err)
	}

	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	out := make([]domain.AuditRecord, len(records))
	for i := range records {
		out[i] = records[len(records)-1-i]
	}
	return out, nil
}
