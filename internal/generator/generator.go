package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"deptags/internal/ctags"
	"deptags/internal/extract"
	"deptags/internal/history"
	"deptags/internal/langfilter"
	"deptags/internal/logging"
	"deptags/internal/resolver"
	"deptags/internal/scratch"
)

// ErrGenerationInProgress is returned when a run is started while another is
// still active on the same generator.
var ErrGenerationInProgress = errors.New("a generation run is already in progress")

// Runner executes a composed indexer command. *ctags.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, cmd ctags.Command, workDir string) error
}

// Context carries the per-invocation inputs of one generation run. Built
// fresh per invocation and discarded at run end.
type Context struct {
	Params     ctags.Params
	SourceDirs []string
	BaseDir    string
}

// Result summarizes one generation run.
type Result struct {
	// Attempted and Failed count source archives handed to extraction.
	Attempted int
	Failed    int

	// Command is the legacy-format command line that was executed.
	Command string

	Duration time.Duration
}

// Generator wires the pipeline stages together. Create with New; the zero
// value is not usable.
type Generator struct {
	resolver  resolver.Resolver
	scratch   *scratch.Manager
	extractor *extract.Extractor
	runner    Runner
	history   history.Storage // nil disables run recording
	log       *slog.Logger
	lock      RunLock
}

// New creates a Generator. hist may be nil to disable run-history recording.
func New(res resolver.Resolver, sm *scratch.Manager, runner Runner, hist history.Storage) *Generator {
	return &Generator{
		resolver:  res,
		scratch:   sm,
		extractor: extract.New(sm),
		runner:    runner,
		history:   hist,
		log:       logging.New("generator"),
	}
}

// Run executes one generation run. See the package comment for the stage
// sequence and failure policy. On a subprocess failure the Result is still
// returned alongside the error so callers can report partial progress.
func (g *Generator) Run(ctx context.Context, gc Context) (*Result, error) {
	if !g.lock.TryAcquire() {
		return nil, ErrGenerationInProgress
	}
	defer g.lock.Release()

	start := time.Now()

	report, err := g.resolver.Resolve(ctx)
	if err != nil {
		g.log.Error("dependency resolution failed", "error", err)
		return nil, fmt.Errorf("resolve dependencies: %w", err)
	}

	g.log.Info("clearing scratch directory", "dir", g.scratch.Dir)
	if err := g.scratch.Clear(); err != nil {
		g.log.Error("failed to clear scratch directory", "dir", g.scratch.Dir, "error", err)
		return nil, fmt.Errorf("clear scratch directory: %w", err)
	}

	keep := langfilter.Build(gc.Params.Languages)
	sum := g.extractor.Extract(ctx, report, keep)
	if sum.Failed > 0 {
		g.log.Info("extraction finished with failures",
			"attempted", sum.Attempted, "failed", sum.Failed)
	}

	dirs := existingDirs(append(append([]string{}, gc.SourceDirs...), g.scratch.Dir))

	cmd := ctags.Compose(gc.Params, dirs, gc.BaseDir)

	result := &Result{
		Attempted: sum.Attempted,
		Failed:    sum.Failed,
		Command:   cmd.String(),
	}

	runErr := g.runner.Run(ctx, cmd, gc.BaseDir)
	result.Duration = time.Since(start)

	g.record(ctx, gc, result, runErr)

	if runErr != nil {
		return result, fmt.Errorf("tag indexer: %w", runErr)
	}
	g.log.Info("tag generation finished",
		"archives", sum.Attempted, "failed", sum.Failed, "duration", result.Duration)
	return result, nil
}

// existingDirs drops directories that do not currently exist, tolerating
// configurations that list source trees which were never created.
func existingDirs(dirs []string) []string {
	out := dirs[:0]
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		out = append(out, dir)
	}
	return out
}

// record writes the run to history. Best effort: a history failure never
// fails a run that already produced its tag file.
func (g *Generator) record(ctx context.Context, gc Context, result *Result, runErr error) {
	if g.history == nil {
		return
	}

	finished := time.Now()
	run := &history.Run{
		RootPath:          gc.BaseDir,
		CommandLine:       result.Command,
		Succeeded:         runErr == nil,
		ExitCode:          ctags.ExitCode(runErr),
		ArchivesAttempted: result.Attempted,
		ArchivesFailed:    result.Failed,
		StartedAt:         finished.Add(-result.Duration),
		FinishedAt:        finished,
	}
	if runErr != nil {
		run.ErrorText = runErr.Error()
	}

	if err := g.history.RecordRun(ctx, run); err != nil {
		g.log.Warn("failed to record run history", "error", err)
	}
}
