// Package sqlite persists review history so past reports can be
// inspected after the fact.
package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ssivitskiy/ai-code-reviewer/internal/domain"
)

// Run is one recorded review invocation.
type Run struct {
	ID           int64
	CreatedAt    time.Time
	Provider     string
	InputHash    string
	QualityScore float64
	TotalIssues  int
}

// Store records review reports in a SQLite database. It implements
// the review service's Recorder port.
type Store struct {
	db       *sql.DB
	provider string
	now      func() time.Time
}

// NewStore opens (or creates) a SQLite store at the given path. Use
// ":memory:" for tests. The provider name is stamped on every run.
func NewStore(dbPath, provider string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db, provider: provider, now: time.Now}
	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

// SetClock overrides the timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at INTEGER NOT NULL,
		provider TEXT NOT NULL,
		input_hash TEXT NOT NULL,
		quality_score REAL NOT NULL,
		total_issues INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS issues (
		issue_id TEXT NOT NULL,
		run_id INTEGER NOT NULL,
		type TEXT NOT NULL,
		severity TEXT NOT NULL,
		file TEXT NOT NULL,
		line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		message TEXT NOT NULL,
		suggestion TEXT,
		PRIMARY KEY (run_id, issue_id),
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS diagnostics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		unit TEXT,
		message TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_input ON runs(input_hash);
	CREATE INDEX IF NOT EXISTS idx_issues_run ON issues(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordReview persists one report with its issues and diagnostics.
// The whole write is transactional; a failed write leaves no partial run.
func (s *Store) RecordReview(ctx context.Context, input string, report domain.ReviewReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO runs (created_at, provider, input_hash, quality_score, total_issues)
		 VALUES (?, ?, ?, ?, ?)`,
		s.now().Unix(), s.provider, hashInput(input), report.QualityScore, report.Summary.Total,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("read run id: %w", err)
	}

	for _, issue := range report.Issues {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO issues (issue_id, run_id, type, severity, file, line, end_line, message, suggestion)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			issue.ID, runID, string(issue.Type), string(issue.Severity),
			issue.File, issue.Line, issue.EndLine, issue.Message, issue.Suggestion,
		); err != nil {
			return fmt.Errorf("insert issue %s: %w", issue.ID, err)
		}
	}

	for _, diagnostic := range report.Diagnostics {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO diagnostics (run_id, kind, unit, message) VALUES (?, ?, ?, ?)`,
			runID, diagnostic.Kind, diagnostic.Unit, diagnostic.Message,
		); err != nil {
			return fmt.Errorf("insert diagnostic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, created_at, provider, input_hash, quality_score, total_issues
		 FROM runs ORDER BY created_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt int64
		if err := rows.Scan(&run.ID, &createdAt, &run.Provider, &run.InputHash,
			&run.QualityScore, &run.TotalIssues); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt = time.Unix(createdAt, 0)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunIssues returns the issues recorded for one run, in insertion order.
func (s *Store) RunIssues(ctx context.Context, runID int64) ([]domain.Issue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT issue_id, type, severity, file, line, end_line, message, suggestion
		 FROM issues WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	var issues []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		var issueType, severity string
		if err := rows.Scan(&issue.ID, &issueType, &severity, &issue.File,
			&issue.Line, &issue.EndLine, &issue.Message, &issue.Suggestion); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issue.Type = domain.IssueType(issueType)
		issue.Severity = domain.Severity(severity)
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

func hashInput(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
