// Package history keeps a SQLite log of dependency resolutions and document
// generations.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName        = "sqlite"
	maxAttempts       = 5
	defaultProjectKey = "default"
)

const (
	StatusOK        = "ok"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// Run is one recorded command execution.
type Run struct {
	ID          string
	ProjectKey  string
	Command     string
	Source      string
	SourceKind  string
	RootPath    string
	FileCount   int
	FailedCount int
	OutputBytes int64
	Status      string
	Error       string
	StartedAt   time.Time
	Duration    time.Duration
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(ctx context.Context, path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts while watch mode records runs.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun stores run, filling in the ID, project key, start time, and
// status when they are empty. It returns the stored value.
func (s *Store) RecordRun(ctx context.Context, run Run) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	run.ProjectKey = strings.TrimSpace(run.ProjectKey)
	if run.ProjectKey == "" {
		run.ProjectKey = defaultProjectKey
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.StartedAt = run.StartedAt.UTC()
	if run.Status == "" {
		run.Status = StatusOK
	}
	if strings.TrimSpace(run.Command) == "" {
		return Run{}, fmt.Errorf("run command must not be empty")
	}

	query := `
INSERT INTO runs (
  id, project_key, command, source, source_kind, root_path, file_count, failed_count,
  output_bytes, status, error, started_at_utc, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`
	err := s.withRetry("record run", func() error {
		_, err := s.db.ExecContext(ctx, query,
			run.ID,
			run.ProjectKey,
			run.Command,
			run.Source,
			run.SourceKind,
			run.RootPath,
			run.FileCount,
			run.FailedCount,
			run.OutputBytes,
			run.Status,
			run.Error,
			run.StartedAt.Format(time.RFC3339Nano),
			run.Duration.Milliseconds(),
		)
		return err
	})
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns the newest runs first. An empty projectKey lists every
// project; limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, projectKey string, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := `
SELECT
  id, project_key, command, source, source_kind, root_path, file_count, failed_count,
  output_bytes, status, error, started_at_utc, duration_ms
FROM runs
`
	args := make([]any, 0, 2)
	if key := strings.TrimSpace(projectKey); key != "" {
		base += " WHERE project_key = ?"
		args = append(args, key)
	}
	base += " ORDER BY started_at_utc DESC, id ASC"
	if limit > 0 {
		base += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("list runs", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, base, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			startedRaw string
			durationMS int64
			run        Run
		)
		if err := rows.Scan(
			&run.ID,
			&run.ProjectKey,
			&run.Command,
			&run.Source,
			&run.SourceKind,
			&run.RootPath,
			&run.FileCount,
			&run.FailedCount,
			&run.OutputBytes,
			&run.Status,
			&run.Error,
			&startedRaw,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		started, err := time.Parse(time.RFC3339Nano, startedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", startedRaw, err)
		}
		run.StartedAt = started.UTC()
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// IsCorruptError reports whether err indicates an unreadable database file.
func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
