package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the history database at dbPath and
// applies pending schema migrations.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency between a writer and readers.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// RecordRun inserts a finished run and fills in its ID.
func (s *SQLiteStorage) RecordRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO runs (root_path, command_line, succeeded, exit_code,
			archives_attempted, archives_failed, error_text, started_at, finished_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := s.db.ExecContext(ctx, query,
		run.RootPath, run.CommandLine, run.Succeeded, run.ExitCode,
		run.ArchivesAttempted, run.ArchivesFailed, run.ErrorText,
		run.StartedAt, run.FinishedAt, now)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get run ID: %w", err)
	}
	run.ID = id
	run.CreatedAt = now
	return nil
}

const runColumns = `id, root_path, command_line, succeeded, exit_code,
	archives_attempted, archives_failed, COALESCE(error_text, ''), started_at, finished_at, created_at`

// GetRun fetches one run by ID.
func (s *SQLiteStorage) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	return scanRun(row)
}

// ListRuns returns recent runs, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, rootPath string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := "SELECT " + runColumns + " FROM runs"
	args := []interface{}{}
	if rootPath != "" {
		query += " WHERE root_path = ?"
		args = append(args, rootPath)
	}
	query += " ORDER BY started_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recent run for a project root.
func (s *SQLiteStorage) LatestRun(ctx context.Context, rootPath string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE root_path = ? ORDER BY started_at DESC, id DESC LIMIT 1",
		rootPath)
	return scanRun(row)
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	run := &Run{}
	err := row.Scan(&run.ID, &run.RootPath, &run.CommandLine, &run.Succeeded, &run.ExitCode,
		&run.ArchivesAttempted, &run.ArchivesFailed, &run.ErrorText,
		&run.StartedAt, &run.FinishedAt, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return run, nil
}
