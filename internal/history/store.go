// Package history persists validation results across pipeline runs.
//
// It uses SQLite so the validation record of a project survives
// individual runs: each validation of a phase document is stored with
// its violations, and callers can query how a run's compliance evolved.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/HendryAvila/factree/internal/constitution"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ValidationRecord is one stored validation of a phase document.
type ValidationRecord struct {
	ID             string `json:"id"`
	RunID          string `json:"run_id"`
	Stage          string `json:"stage"`
	Document       string `json:"document"`
	ViolationCount int    `json:"violation_count"`
	Blocking       bool   `json:"blocking"`
	CreatedAt      string `json:"created_at"`
}

// Config holds history store configuration.
type Config struct {
	DataDir string
}

// DefaultConfig returns the default configuration for the history store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".factree")}
}

// Store is the validation history engine backed by SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given configuration. It creates the
// data directory if needed, opens SQLite with WAL mode, and runs
// migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("history: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "history.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("history: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS validations (
			id              TEXT PRIMARY KEY,
			run_id          TEXT NOT NULL,
			stage           TEXT NOT NULL,
			document        TEXT NOT NULL,
			violation_count INTEGER NOT NULL DEFAULT 0,
			blocking        INTEGER NOT NULL DEFAULT 0,
			created_at      TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_val_run     ON validations(run_id);
		CREATE INDEX IF NOT EXISTS idx_val_created ON validations(created_at DESC);

		CREATE TABLE IF NOT EXISTS violations (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			validation_id TEXT NOT NULL,
			principle     TEXT NOT NULL,
			severity      TEXT NOT NULL,
			location      TEXT NOT NULL,
			description   TEXT NOT NULL,
			suggestion    TEXT NOT NULL,
			FOREIGN KEY (validation_id) REFERENCES validations(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_viol_validation ON violations(validation_id);
		CREATE INDEX IF NOT EXISTS idx_viol_severity   ON violations(severity);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordValidation stores one validation result with its violations and
// returns the new record's id.
func (s *Store) RecordValidation(runID, stage, document string, violations []constitution.Violation) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("history: begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	blocking := 0
	if constitution.HasBlocking(violations) {
		blocking = 1
	}

	if _, err := tx.Exec(
		`INSERT INTO validations (id, run_id, stage, document, violation_count, blocking)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, runID, stage, document, len(violations), blocking,
	); err != nil {
		return "", fmt.Errorf("history: insert validation: %w", err)
	}

	for _, v := range violations {
		if _, err := tx.Exec(
			`INSERT INTO violations (validation_id, principle, severity, location, description, suggestion)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, v.Principle, string(v.Severity), v.Location, v.Description, v.Suggestion,
		); err != nil {
			return "", fmt.Errorf("history: insert violation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("history: commit: %w", err)
	}

	return id, nil
}

// RecentValidations returns the most recent validation records,
// optionally filtered by run id.
func (s *Store) RecentValidations(runID string, limit int) ([]ValidationRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, run_id, stage, document, violation_count, blocking, created_at
		FROM validations
	`
	args := []any{}

	if runID != "" {
		query += " WHERE run_id = ?"
		args = append(args, runID)
	}

	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query validations: %w", err)
	}
	defer rows.Close()

	var results []ValidationRecord
	for rows.Next() {
		var rec ValidationRecord
		var blocking int
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Stage, &rec.Document,
			&rec.ViolationCount, &blocking, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Blocking = blocking != 0
		results = append(results, rec)
	}
	return results, rows.Err()
}

// ViolationsFor returns the stored violations of one validation record.
func (s *Store) ViolationsFor(validationID string) ([]constitution.Violation, error) {
	rows, err := s.db.Query(
		`SELECT principle, severity, location, description, suggestion
		 FROM violations
		 WHERE validation_id = ?
		 ORDER BY id ASC`,
		validationID,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query violations: %w", err)
	}
	defer rows.Close()

	var results []constitution.Violation
	for rows.Next() {
		var v constitution.Violation
		var severity string
		if err := rows.Scan(&v.Principle, &severity, &v.Location, &v.Description, &v.Suggestion); err != nil {
			return nil, err
		}
		v.Severity = constitution.Severity(severity)
		results = append(results, v)
	}
	return results, rows.Err()
}

// Stats returns aggregate history statistics.
type Stats struct {
	TotalValidations int `json:"total_validations"`
	TotalViolations  int `json:"total_violations"`
	BlockedCount     int `json:"blocked_count"`
}

// Summary returns aggregate statistics over the stored history.
func (s *Store) Summary() (*Stats, error) {
	stats := &Stats{}

	_ = s.db.QueryRow("SELECT COUNT(*) FROM validations").Scan(&stats.TotalValidations)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM violations").Scan(&stats.TotalViolations)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM validations WHERE blocking = 1").Scan(&stats.BlockedCount)

	return stats, nil
}
