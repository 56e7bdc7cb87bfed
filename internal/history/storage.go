package history

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested run doesn't exist.
var ErrNotFound = errors.New("not found")

// Run is one recorded generation run.
type Run struct {
	ID                int64
	RootPath          string
	CommandLine       string
	Succeeded         bool
	ExitCode          int
	ArchivesAttempted int
	ArchivesFailed    int
	ErrorText         string // empty on success
	StartedAt         time.Time
	FinishedAt        time.Time
	CreatedAt         time.Time
}

// Storage defines the run-history persistence interface.
type Storage interface {
	// RecordRun inserts a finished run and fills in its ID.
	RecordRun(ctx context.Context, run *Run) error

	// GetRun fetches one run by ID; ErrNotFound when absent.
	GetRun(ctx context.Context, id int64) (*Run, error)

	// ListRuns returns the most recent runs for a project root, newest
	// first, at most limit entries. An empty rootPath lists all projects.
	ListRuns(ctx context.Context, rootPath string, limit int) ([]*Run, error)

	// LatestRun returns the most recent run for a project root;
	// ErrNotFound when the project has never run.
	LatestRun(ctx context.Context, rootPath string) (*Run, error)

	Close() error
}
