// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the final results of each search run per project
// in SQLite. Earlier runs are kept; the newest run is a project's current
// short list.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/labscout/pkg/types"
)

// ErrNoRuns is returned when a project has no saved runs.
var ErrNoRuns = errors.New("no saved runs")

// Run describes one saved search.
type Run struct {
	ID          string    `json:"id" yaml:"id"`
	Project     string    `json:"project" yaml:"project"`
	Description string    `json:"description" yaml:"description"`
	Field       string    `json:"field,omitempty" yaml:"field,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	ResultCount int       `json:"result_count" yaml:"result_count"`

	// Fallback is set when the results are model recommendations.
	Fallback bool `json:"fallback" yaml:"fallback"`
}

// RunInput is the search context saved alongside results.
type RunInput struct {
	Project     string
	Description string
	Field       string
	Fallback    bool
}

// Store manages the results database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at cfg.Path and its schema.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = "labscout.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
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
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			project TEXT NOT NULL,
			description TEXT,
			field TEXT,
			created_at TEXT NOT NULL,
			fallback INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project)`,
		`CREATE TABLE IF NOT EXISTS results (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			abstract TEXT,
			description TEXT,
			date TEXT,
			authors TEXT,
			url TEXT,
			doi TEXT,
			citations INTEGER,
			source TEXT,
			source_icon TEXT,
			match_percentage REAL,
			match_reasons TEXT,
			verified INTEGER NOT NULL DEFAULT 0,
			scores TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_doi ON results(doi)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun stores results under a new run of in.Project.
func (s *Store) SaveRun(ctx context.Context, in RunInput, results []types.Result) (Run, error) {
	if in.Project == "" {
		return Run{}, fmt.Errorf("project name is required")
	}
	run := Run{
		ID:          uuid.NewString(),
		Project:     in.Project,
		Description: in.Description,
		Field:       in.Field,
		CreatedAt:   s.now().UTC(),
		ResultCount: len(results),
		Fallback:    in.Fallback,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, project, description, field, created_at, fallback) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Project, run.Description, run.Field,
		run.CreatedAt.Format(time.RFC3339Nano), run.Fallback,
	)
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (run_id, position, title, abstract, description, date, authors, url, doi,
			citations, source, source_icon, match_percentage, match_reasons, verified, scores)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		authorsJSON, err := json.Marshal(r.Authors)
		if err != nil {
			return Run{}, fmt.Errorf("encoding result %d authors: %w", i, err)
		}
		reasonsJSON, err := json.Marshal(r.MatchReasons)
		if err != nil {
			return Run{}, fmt.Errorf("encoding result %d match reasons: %w", i, err)
		}
		scoresJSON, err := json.Marshal(r.Scores)
		if err != nil {
			return Run{}, fmt.Errorf("encoding result %d scores: %w", i, err)
		}
		var citations sql.NullInt64
		if r.Citations != nil {
			citations = sql.NullInt64{Int64: int64(*r.Citations), Valid: true}
		}
		_, err = stmt.ExecContext(ctx,
			run.ID, i, r.Title, r.Abstract, r.Description, r.Date,
			string(authorsJSON), r.URL, r.DOI, citations, r.Source, r.SourceIcon,
			r.MatchPercentage, string(reasonsJSON), r.Verified, string(scoresJSON),
		)
		if err != nil {
			return Run{}, fmt.Errorf("inserting result %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("committing run: %w", err)
	}
	return run, nil
}

// Runs lists saved runs newest first. An empty project lists all projects.
func (s *Store) Runs(ctx context.Context, project string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.project, r.description, r.field, r.created_at, r.fallback,
			(SELECT count(*) FROM results WHERE run_id = r.id)
		 FROM runs r
		 WHERE ? = '' OR r.project = ?
		 ORDER BY r.seq DESC`, project, project)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run         Run
			description sql.NullString
			field       sql.NullString
			created     string
		)
		if err := rows.Scan(&run.ID, &run.Project, &description, &field, &created, &run.Fallback, &run.ResultCount); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.Description = description.String
		run.Field = field.String
		if run.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parsing run time %q: %w", created, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestResults returns the newest run of project and its results in rank
// order. It returns ErrNoRuns when the project has none.
func (s *Store) LatestResults(ctx context.Context, project string) (Run, []types.Result, error) {
	runs, err := s.Runs(ctx, project)
	if err != nil {
		return Run{}, nil, err
	}
	if len(runs) == 0 {
		return Run{}, nil, fmt.Errorf("project %q: %w", project, ErrNoRuns)
	}
	results, err := s.Results(ctx, runs[0].ID)
	if err != nil {
		return Run{}, nil, err
	}
	return runs[0], results, nil
}

// Results returns the results of one run in rank order.
func (s *Store) Results(ctx context.Context, runID string) ([]types.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, abstract, description, date, authors, url, doi, citations,
			source, source_icon, match_percentage, match_reasons, verified, scores
		 FROM results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	results := []types.Result{}
	for rows.Next() {
		var (
			r                                    types.Result
			abstract, description, date          sql.NullString
			url, doi, source, icon               sql.NullString
			authorsJSON, reasonsJSON, scoresJSON sql.NullString
			citations                            sql.NullInt64
		)
		if err := rows.Scan(&r.Title, &abstract, &description, &date, &authorsJSON, &url, &doi,
			&citations, &source, &icon, &r.MatchPercentage, &reasonsJSON, &r.Verified, &scoresJSON); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		r.Abstract = abstract.String
		r.Description = description.String
		r.Date = date.String
		r.URL = url.String
		r.DOI = doi.String
		r.Source = source.String
		r.SourceIcon = icon.String
		if citations.Valid {
			n := int(citations.Int64)
			r.Citations = &n
		}
		r.Authors = decodeStrings(authorsJSON.String)
		r.MatchReasons = decodeStrings(reasonsJSON.String)
		if scoresJSON.String != "" {
			_ = json.Unmarshal([]byte(scoresJSON.String), &r.Scores)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func decodeStrings(s string) []string {
	out := []string{}
	if s != "" {
		_ = json.Unmarshal([]byte(s), &out)
	}
	if out == nil {
		out = []string{}
	}
	return out
}
