// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps an optional SQLite log of aggregation runs: which
// sources were asked, how many items each returned, how long it took, and
// why it failed. Artifact content is never stored.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/work-output/pkg/types"
)

// timeLayout is fixed-width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// defaultRecentLimit applies when Recent is called with a non-positive limit.
const defaultRecentLimit = 20

// Store manages the run history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path, creating the parent
// directory and schema when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			sources TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS source_outcomes (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			source TEXT NOT NULL,
			items INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			error TEXT,
			PRIMARY KEY (run_id, source)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores one run and its outcomes in a single transaction.
func (s *Store) Record(ctx context.Context, run types.RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	sourcesJSON, _ := json.Marshal(run.Sources)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, start_date, end_date, sources) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().Format(timeLayout), run.StartDate, run.EndDate, string(sourcesJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO source_outcomes (run_id, source, items, duration_ms, error) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range run.Outcomes {
		var errText sql.NullString
		if o.Error != "" {
			errText = sql.NullString{String: o.Error, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, run.ID, o.Source, o.Items, o.Duration.Milliseconds(), errText); err != nil {
			return fmt.Errorf("inserting outcome %s/%s: %w", run.ID, o.Source, err)
		}
	}
	return tx.Commit()
}

// Recent returns up to limit runs, newest first, with their outcomes.
func (s *Store) Recent(ctx context.Context, limit int) ([]types.RunRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, start_date, end_date, sources
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.RunRecord
	for rows.Next() {
		var (
			run         types.RunRecord
			startedAt   string
			sourcesJSON string
		)
		if err := rows.Scan(&run.ID, &startedAt, &run.StartDate, &run.EndDate, &sourcesJSON); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.StartedAt, _ = time.Parse(timeLayout, startedAt)
		_ = json.Unmarshal([]byte(sourcesJSON), &run.Sources)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	for i := range runs {
		outcomes, err := s.outcomes(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Outcomes = outcomes
	}
	return runs, nil
}

func (s *Store) outcomes(ctx context.Context, runID string) ([]types.SourceOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, items, duration_ms, error FROM source_outcomes
		 WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes for %s: %w", runID, err)
	}
	defer rows.Close()

	var outcomes []types.SourceOutcome
	for rows.Next() {
		var (
			o          types.SourceOutcome
			durationMS int64
			errText    sql.NullString
		)
		if err := rows.Scan(&o.Source, &o.Items, &durationMS, &errText); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		o.Duration = time.Duration(durationMS) * time.Millisecond
		o.Error = errText.String
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
