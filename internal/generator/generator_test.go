package generator

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deptags/internal/ctags"
	"deptags/internal/history"
	"deptags/internal/resolver"
	"deptags/internal/scratch"
)

// fakeResolver returns a fixed report or error.
type fakeResolver struct {
	report *resolver.Report
	err    error
	calls  int
}

func (f *fakeResolver) Resolve(ctx context.Context) (*resolver.Report, error) {
	f.calls++
	return f.report, f.err
}

// fakeRunner captures the composed command instead of executing anything.
type fakeRunner struct {
	cmd     ctags.Command
	workDir string
	err     error
	calls   int
}

func (f *fakeRunner) Run(ctx context.Context, cmd ctags.Command, workDir string) error {
	f.calls++
	f.cmd = cmd
	f.workDir = workDir
	return f.err
}

// blockingRunner parks inside Run until released, so a test can hold the
// generator mid-run.
type blockingRunner struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingRunner) Run(ctx context.Context, cmd ctags.Command, workDir string) error {
	close(b.started)
	<-b.release
	return nil
}

func writeSourcesJar(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func TestRun_OnlySourceArtifactsExtracted(t *testing.T) {
	tmp := t.TempDir()
	jar := filepath.Join(tmp, "lib-sources.jar")
	writeSourcesJar(t, jar, map[string]string{"A.scala": "object A"})

	res := &fakeResolver{report: &resolver.Report{Artifacts: []resolver.Artifact{
		{Type: "pom", File: filepath.Join(tmp, "lib.pom")},
		{Type: "src", File: jar},
	}}}

	scratchDir := filepath.Join(tmp, "scratch")
	runner := &fakeRunner{}
	g := New(res, scratch.NewManager(scratchDir), runner, nil)

	base := filepath.Join(tmp, "proj")
	require.NoError(t, os.MkdirAll(base, 0755))

	result, err := g.Run(context.Background(), Context{
		Params:  ctags.DefaultParams(),
		BaseDir: base,
	})
	require.NoError(t, err)

	// Only the src artifact was attempted; the pom was never touched.
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 0, result.Failed)

	content, err := os.ReadFile(filepath.Join(scratchDir, "A.scala"))
	require.NoError(t, err)
	assert.Equal(t, "object A", string(content))
}

func TestRun_FiltersNonExistingDirs(t *testing.T) {
	tmp := t.TempDir()
	existing := filepath.Join(tmp, "src", "main", "scala")
	require.NoError(t, os.MkdirAll(existing, 0755))
	missing := filepath.Join(tmp, "src", "test", "scala")

	res := &fakeResolver{report: &resolver.Report{}}
	runner := &fakeRunner{}
	scratchDir := filepath.Join(tmp, "scratch")
	require.NoError(t, os.MkdirAll(scratchDir, 0755))

	g := New(res, scratch.NewManager(scratchDir), runner, nil)

	_, err := g.Run(context.Background(), Context{
		Params:     ctags.DefaultParams(),
		SourceDirs: []string{existing, missing},
		BaseDir:    tmp,
	})
	require.NoError(t, err)

	require.Equal(t, 1, runner.calls)
	assert.Equal(t, []string{existing, scratchDir}, runner.cmd.Dirs)
	assert.Equal(t, tmp, runner.workDir)
}

func TestRun_ResolutionFailureAbortsBeforeScratch(t *testing.T) {
	tmp := t.TempDir()
	scratchDir := filepath.Join(tmp, "scratch")
	require.NoError(t, os.MkdirAll(scratchDir, 0755))
	marker := filepath.Join(scratchDir, "previous.scala")
	require.NoError(t, os.WriteFile(marker, []byte("stale"), 0644))

	res := &fakeResolver{err: errors.New("resolution exploded")}
	runner := &fakeRunner{}
	g := New(res, scratch.NewManager(scratchDir), runner, nil)

	_, err := g.Run(context.Background(), Context{Params: ctags.DefaultParams(), BaseDir: tmp})
	require.Error(t, err)

	// Scratch untouched, subprocess never ran.
	_, statErr := os.Stat(marker)
	assert.NoError(t, statErr)
	assert.Equal(t, 0, runner.calls)
}

func TestRun_ScratchClearedBeforeExtraction(t *testing.T) {
	tmp := t.TempDir()
	scratchDir := filepath.Join(tmp, "scratch")
	require.NoError(t, os.MkdirAll(scratchDir, 0755))
	stale := filepath.Join(scratchDir, "stale.scala")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	res := &fakeResolver{report: &resolver.Report{}}
	runner := &fakeRunner{}
	g := New(res, scratch.NewManager(scratchDir), runner, nil)

	_, err := g.Run(context.Background(), Context{Params: ctags.DefaultParams(), BaseDir: tmp})
	require.NoError(t, err)

	_, statErr := os.Stat(stale)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_ExtractionFailureIsNonFatal(t *testing.T) {
	tmp := t.TempDir()
	good := filepath.Join(tmp, "good-sources.jar")
	writeSourcesJar(t, good, map[string]string{"B.scala": "object B"})
	bad := filepath.Join(tmp, "bad-sources.jar")
	require.NoError(t, os.WriteFile(bad, []byte("not a zip"), 0644))

	res := &fakeResolver{report: &resolver.Report{Artifacts: []resolver.Artifact{
		{Type: "src", File: bad},
		{Type: "src", File: good},
	}}}
	runner := &fakeRunner{}
	scratchDir := filepath.Join(tmp, "scratch")
	g := New(res, scratch.NewManager(scratchDir), runner, nil)

	result, err := g.Run(context.Background(), Context{Params: ctags.DefaultParams(), BaseDir: tmp})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, runner.calls, "subprocess still runs after archive failures")
}

func TestRun_SubprocessFailure(t *testing.T) {
	tmp := t.TempDir()
	res := &fakeResolver{report: &resolver.Report{}}
	runner := &fakeRunner{err: errors.New("exit status 1")}
	g := New(res, scratch.NewManager(filepath.Join(tmp, "scratch")), runner, nil)

	result, err := g.Run(context.Background(), Context{Params: ctags.DefaultParams(), BaseDir: tmp})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tag indexer")
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Command)
}

func TestRun_RecordsHistory(t *testing.T) {
	tmp := t.TempDir()
	store, err := history.NewSQLiteStorage(filepath.Join(tmp, "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	res := &fakeResolver{report: &resolver.Report{}}
	runner := &fakeRunner{}
	g := New(res, scratch.NewManager(filepath.Join(tmp, "scratch")), runner, store)

	base := filepath.Join(tmp, "proj")
	require.NoError(t, os.MkdirAll(base, 0755))

	_, err = g.Run(context.Background(), Context{Params: ctags.DefaultParams(), BaseDir: base})
	require.NoError(t, err)

	run, err := store.LatestRun(context.Background(), base)
	require.NoError(t, err)
	assert.True(t, run.Succeeded)
	assert.Equal(t, 0, run.ExitCode)
	assert.NotEmpty(t, run.CommandLine)
}

func TestRun_RejectsOverlappingRuns(t *testing.T) {
	tmp := t.TempDir()
	res := &fakeResolver{report: &resolver.Report{}}
	runner := &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
	g := New(res, scratch.NewManager(filepath.Join(tmp, "scratch")), runner, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = g.Run(context.Background(), Context{Params: ctags.DefaultParams(), BaseDir: tmp})
	}()

	// Wait for the first run to reach the (parked) subprocess stage.
	<-runner.started

	_, err := g.Run(context.Background(), Context{Params: ctags.DefaultParams(), BaseDir: tmp})
	assert.ErrorIs(t, err, ErrGenerationInProgress)

	close(runner.release)
	<-done
}
