package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/swiftvisa/swiftvisa-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.DecisionLogger  = (*Store)(nil)
	_ driven.DecisionHistory = (*Store)(nil)
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// dbFile is the database file name inside the data directory.
const dbFile = "decisions.db"

// timestampLayout is fixed-width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Store persists audit records in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.swiftvisa/data/decisions.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".swiftvisa", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Log inserts one audit record.
func (s *Store) Log(ctx context.Context, record domain.AuditRecord) error {
	profile := jsonNull
	if record.Profile != nil {
		data, err := json.Marshal(record.Profile)
		if err != nil {
			return fmt.Errorf("encoding profile: %w", err)
		}
		profile = string(data)
	}

	hits := record.Retrieved
	if hits == nil {
		hits = []domain.AuditHit{}
	}
	retrieved, err := json.Marshal(hits)
	if err != nil {
		return fmt.Errorf("encoding retrieved: %w", err)
	}

	var decision sql.NullString
	if record.Decision != "" {
		decision = sql.NullString{String: record.Decision, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decisions (id, timestamp, query, user_profile, retrieved, decision, eligibility, confidence, prompt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.Timestamp.UTC().Format(timestampLayout),
		record.Query,
		profile,
		string(retrieved),
		decision,
		record.Eligibility.String(),
		record.Confidence,
		record.Prompt,
	)
	if err != nil {
		return fmt.Errorf("inserting decision: %w", err)
	}
	return nil
}

// Recent returns up to limit records ordered by timestamp, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, query, user_profile, retrieved, decision, eligibility, confidence, prompt
		FROM decisions
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying decisions: %w", err)
	}
	defer rows.Close()

	records := []domain.AuditRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating decisions: %w", err)
	}
	return records, nil
}

// Get returns one record by id, or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*domain.AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, query, user_profile, retrieved, decision, eligibility, confidence, prompt
		FROM decisions WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying decision: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying decision: %w", err)
		}
		return nil, domain.ErrNotFound
	}
	return scanRecord(rows)
}

// CountByEligibility returns the number of stored records per eligibility value.
func (s *Store) CountByEligibility(ctx context.Context) (map[domain.Eligibility]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT eligibility, COUNT(*) FROM decisions GROUP BY eligibility`)
	if err != nil {
		return nil, fmt.Errorf("counting decisions: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Eligibility]int)
	for rows.Next() {
		var (
			elig  string
			count int
		)
		if err := rows.Scan(&elig, &count); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[domain.Eligibility(elig)] = count
	}
	return counts, rows.Err()
}

func scanRecord(rows *sql.Rows) (*domain.AuditRecord, error) {
	var (
		rec       domain.AuditRecord
		ts        string
		profile   sql.NullString
		retrieved string
		decision  sql.NullString
		elig      string
	)
	if err := rows.Scan(&rec.ID, &ts, &rec.Query, &profile, &retrieved, &decision, &elig,
		&rec.Confidence, &rec.Prompt); err != nil {
		return nil, fmt.Errorf("scanning decision: %w", err)
	}

	t, err := time.Parse(timestampLayout, ts)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp %q: %w", ts, err)
	}
	rec.Timestamp = t.UTC()
	rec.Decision = decision.String
	rec.Eligibility = domain.Eligibility(elig)

	if profile.Valid && profile.String != jsonNull && profile.String != "" {
		var p domain.UserProfile
		if err := json.Unmarshal([]byte(profile.String), &p); err != nil {
			return nil, fmt.Errorf("decoding profile: %w", err)
		}
		rec.Profile = &p
	}
	if err := json.Unmarshal([]byte(retrieved), &rec.Retrieved); err != nil {
		return nil, fmt.Errorf("decoding retrieved: %w", err)
	}
	return &rec, nil
}

// migrate runs all pending migrations from the embedded filesystem.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_decisions.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}
