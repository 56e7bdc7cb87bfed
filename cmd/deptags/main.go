// deptags builds a combined ctags index for a project and the sources of
// its dependencies.
//
// Usage:
//
//	deptags generate [--dir=<path>] [--languages=a,b] [--relative]
//	deptags watch    [--dir=<path>] [--debounce=<duration>]
//	deptags serve    [--data=<path>]
//	deptags history  [--dir=<path>] [--limit=<n>] [--data=<path>]
//	deptags --version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"deptags/internal/config"
	"deptags/internal/ctags"
	"deptags/internal/generator"
	"deptags/internal/history"
	"deptags/internal/langfilter"
	"deptags/internal/logging"
	"deptags/internal/mcp"
	"deptags/internal/scratch"
	"deptags/internal/watch"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	sub := os.Args[1]
	args := os.Args[2:]
	switch sub {
	case "generate":
		runGenerate(args)
	case "watch":
		runWatch(args)
	case "serve":
		runServe(args)
	case "history":
		runHistory(args)
	case "--version", "version":
		fmt.Printf("deptags\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", history.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", history.DriverName)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "usage: deptags <generate|watch|serve|history> [options]\n")
	fmt.Fprintf(os.Stderr, "  deptags generate [--dir=<path>] [--languages=a,b] [--relative]\n")
	fmt.Fprintf(os.Stderr, "  deptags watch    [--dir=<path>] [--debounce=<duration>]\n")
	fmt.Fprintf(os.Stderr, "  deptags serve    [--data=<path>]\n")
	fmt.Fprintf(os.Stderr, "  deptags history  [--dir=<path>] [--limit=<n>] [--data=<path>]\n")
	fmt.Fprintf(os.Stderr, "  deptags --version\n")
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	dir := fs.String("dir", ".", "Project root directory")
	languages := fs.String("languages", "", "Override configured languages (comma separated)")
	relative := fs.Bool("relative", false, "Emit base-relative paths in the tag file")
	dataPath := fs.String("data", "", "Run history location (default ~/.deptags)")
	_ = fs.Parse(args)

	base, cfg := loadProject(*dir)

	params := cfg.Params()
	if *languages != "" {
		params.Languages = splitList(*languages)
	}
	if *relative {
		params.RelativePaths = true
	}

	store := openHistory(*dataPath)
	if store != nil {
		defer store.Close()
	}

	gen := buildGenerator(base, cfg, store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := gen.Run(ctx, generator.Context{
		Params:     params,
		SourceDirs: cfg.AbsSourceDirs(base),
		BaseDir:    base,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s (%d archives, %d failed, %s)\n",
		params.TagFileName, result.Attempted, result.Failed, result.Duration.Round(time.Millisecond))
}

func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	dir := fs.String("dir", ".", "Project root directory")
	debounce := fs.Duration("debounce", watch.DefaultDebounce, "Settle time before regenerating")
	dataPath := fs.String("data", "", "Run history location (default ~/.deptags)")
	_ = fs.Parse(args)

	base, cfg := loadProject(*dir)
	params := cfg.Params()

	store := openHistory(*dataPath)
	if store != nil {
		defer store.Close()
	}

	gen := buildGenerator(base, cfg, store)
	scratchDir := cfg.AbsScratchDir(base)

	// With no configured languages every change triggers a run; the
	// language filter only narrows the trigger set when one is set.
	var match func(string) bool
	if len(params.Languages) > 0 {
		match = langfilter.Build(params.Languages)
	}

	w, err := watch.New(watch.Options{
		Dirs:     cfg.AbsSourceDirs(base),
		SkipDir:  func(path string) bool { return path == scratchDir },
		Match:    match,
		Debounce: *debounce,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		os.Exit(1)
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	regenerate := func(ctx context.Context) error {
		_, err := gen.Run(ctx, generator.Context{
			Params:     params,
			SourceDirs: cfg.AbsSourceDirs(base),
			BaseDir:    base,
		})
		return err
	}

	// Produce a fresh index before settling into the event loop.
	if err := regenerate(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "watch: initial generation: %v\n", err)
	}

	if err := w.Run(ctx, regenerate); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		os.Exit(1)
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dataPath := fs.String("data", "", "Server state location (default ~/.deptags)")
	_ = fs.Parse(args)

	// stdout carries MCP protocol traffic, so all logging goes to stderr.
	logging.Init(logging.ParseLevel(os.Getenv("DEPTAGS_LOG_LEVEL")), "text", os.Stderr)

	server, err := mcp.NewServer(*dataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "serve: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "serve: %v\n", err)
		os.Exit(1)
	}
}

func runHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dir := fs.String("dir", ".", "Project root directory")
	limit := fs.Int("limit", 10, "Maximum number of runs to show")
	dataPath := fs.String("data", "", "Run history location (default ~/.deptags)")
	_ = fs.Parse(args)

	base, err := filepath.Abs(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
		os.Exit(1)
	}

	store := openHistory(*dataPath)
	if store == nil {
		fmt.Fprintf(os.Stderr, "history: no run history available\n")
		os.Exit(1)
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), base, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return
	}

	for _, run := range runs {
		status := "ok"
		if !run.Succeeded {
			status = fmt.Sprintf("failed (exit %d)", run.ExitCode)
		}
		fmt.Printf("%s  %-18s archives=%d/%d  %s\n",
			run.StartedAt.Format("2006-01-02 15:04:05"),
			status,
			run.ArchivesAttempted-run.ArchivesFailed, run.ArchivesAttempted,
			run.CommandLine)
		if run.ErrorText != "" {
			fmt.Printf("    %s\n", run.ErrorText)
		}
	}
}

// loadProject resolves the project root, loads its configuration, applies
// the configured log settings, and validates the scratch layout.
func loadProject(dir string) (string, *config.Config) {
	base, err := filepath.Abs(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve project dir: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(filepath.Join(base, config.DefaultFileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, os.Stderr)

	if err := cfg.Validate(base); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	return base, cfg
}

// buildGenerator wires the configured resolver, the scratch manager, and
// the ctags runner into a generator. A nil history store is allowed.
func buildGenerator(base string, cfg *config.Config, store history.Storage) *generator.Generator {
	res, err := cfg.BuildResolver(base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configure resolver: %v\n", err)
		os.Exit(1)
	}
	return generator.New(res, scratch.NewManager(cfg.AbsScratchDir(base)), ctags.NewRunner(), store)
}

// openHistory opens the shared run history database. Failures are not
// fatal: generation still works, it just goes unrecorded.
func openHistory(dataPath string) history.Storage {
	if dataPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "run history disabled: %v\n", err)
			return nil
		}
		dataPath = filepath.Join(home, ".deptags")
	}
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "run history disabled: %v\n", err)
		return nil
	}

	store, err := history.NewSQLiteStorage(filepath.Join(dataPath, "history.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "run history disabled: %v\n", err)
		return nil
	}
	return store
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
