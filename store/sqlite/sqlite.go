/*
Package sqlite provides the SQLite-backed store for allocation runs and
report configuration.

PURPOSE:
  Persists three things:
  - runs:     completed allocation runs, append-only, for audit history
  - holidays: the explicit holiday set fed to the business calendar
  - settings: lead-time overrides (file configuration applies until overridden)

APPEND-ONLY RUNS:
  Allocation runs are financial/operational records. There is no
  UpdateRun and no DeleteRun; a bad run is superseded by the next run,
  never edited. Partial runs are never written: SaveRun is called only
  after a run completes.

WAL MODE:
  SQLite is opened with WAL so readers (report screens) never block the
  single writer (a run being persisted).

USAGE:
  store, err := sqlite.New("./availability.db")
  if err != nil { log.Fatal(err) }
  defer store.Close()

SEE ALSO:
  - allocation/types.go: RunResult being persisted
  - api/handlers.go: The only writer of runs
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/forge/availability-engine/allocation"
	"github.com/forge/availability-engine/calendar"
)

// Store implements run, holiday, and settings persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Allocation runs (append-only audit history)
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		generated_at TEXT NOT NULL,
		line_count INTEGER NOT NULL,
		summary_json TEXT NOT NULL,
		results_json TEXT NOT NULL,
		warnings_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_generated_at
		ON runs(generated_at DESC);

	-- Business-calendar holidays
	CREATE TABLE IF NOT EXISTS holidays (
		date TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	);

	-- Lead-time overrides and other report settings
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RUNS
// =============================================================================

// RunRecord is the stored summary view of a run, without per-line detail.
type RunRecord struct {
	ID          string
	GeneratedAt time.Time
	LineCount   int
	Summary     allocation.Summary
}

// SaveRun appends a completed run. Runs are never updated or deleted.
func (s *Store) SaveRun(ctx context.Context, run *allocation.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	resultsJSON, err := json.Marshal(run.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	warnings := run.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, generated_at, line_count, summary_json, results_json, warnings_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.GeneratedAt.UTC().Format(time.RFC3339Nano),
		len(run.Results),
		string(summaryJSON),
		string(resultsJSON),
		string(warningsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun loads one run with full per-line detail. Returns nil when the id
// is unknown.
func (s *Store) GetRun(ctx context.Context, id string) (*allocation.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, generated_at, summary_json, results_json, warnings_json
		FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// LatestRun loads the most recent run, nil when no run exists yet.
func (s *Store) LatestRun(ctx context.Context) (*allocation.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, generated_at, summary_json, results_json, warnings_json
		FROM runs ORDER BY generated_at DESC, id DESC LIMIT 1`)
	return scanRun(row)
}

// ListRuns returns stored run summaries, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, generated_at, line_count, summary_json
		FROM runs ORDER BY generated_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			rec         RunRecord
			generatedAt string
			summaryJSON string
		)
		if err := rows.Scan(&rec.ID, &generatedAt, &rec.LineCount, &summaryJSON); err != nil {
			return nil, err
		}
		rec.GeneratedAt, err = time.Parse(time.RFC3339Nano, generatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse generated_at: %w", err)
		}
		if err := json.Unmarshal([]byte(summaryJSON), &rec.Summary); err != nil {
			return nil, fmt.Errorf("unmarshal summary: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRun(row *sql.Row) (*allocation.RunResult, error) {
	var (
		run          allocation.RunResult
		generatedAt  string
		summaryJSON  string
		resultsJSON  string
		warningsJSON string
	)
	err := row.Scan(&run.RunID, &generatedAt, &summaryJSON, &resultsJSON, &warningsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	run.GeneratedAt, err = time.Parse(time.RFC3339Nano, generatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse generated_at: %w", err)
	}
	if err := json.Unmarshal([]byte(summaryJSON), &run.Summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	if err := json.Unmarshal([]byte(resultsJSON), &run.Results); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}
	if err := json.Unmarshal([]byte(warningsJSON), &run.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}
	return &run, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// Holiday is one configured non-working date.
type Holiday struct {
	Date time.Time
	Name string
}

// SaveHoliday adds or renames a holiday. Idempotent on date.
func (s *Store) SaveHoliday(ctx context.Context, h Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (date, name) VALUES (?, ?)
		ON CONFLICT(date) DO UPDATE SET name = excluded.name`,
		h.Date.Format("2006-01-02"), h.Name)
	return err
}

// DeleteHoliday removes a holiday by date.
func (s *Store) DeleteHoliday(ctx context.Context, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE date = ?`,
		date.Format("2006-01-02"))
	return err
}

// ListHolidays returns all holidays ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT date, name FROM holidays ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []Holiday
	for rows.Next() {
		var (
			h       Holiday
			dateStr string
		)
		if err := rows.Scan(&dateStr, &h.Name); err != nil {
			return nil, err
		}
		h.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse holiday date: %w", err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// HolidayDates returns just the dates, for calendar construction.
func (s *Store) HolidayDates(ctx context.Context) ([]time.Time, error) {
	holidays, err := s.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, len(holidays))
	for i, h := range holidays {
		dates[i] = h.Date
	}
	return dates, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

const settingLeadTimes = "lead_times"

// SaveLeadTimes persists a lead-time override.
func (s *Store) SaveLeadTimes(ctx context.Context, lt calendar.LeadTimes) error {
	if err := lt.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := json.Marshal(lt)
	if err != nil {
		return fmt.Errorf("marshal lead times: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		settingLeadTimes, string(value), time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetLeadTimes returns the stored override, or nil when none is set.
func (s *Store) GetLeadTimes(ctx context.Context) (*calendar.LeadTimes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, settingLeadTimes).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var lt calendar.LeadTimes
	if err := json.Unmarshal([]byte(value), &lt); err != nil {
		return nil, fmt.Errorf("unmarshal lead times: %w", err)
	}
	return &lt, nil
}
