package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkipDir(t *testing.T) {
	scratch := filepath.Join("/proj", ".deptags", "dependency-src")
	w := &Watcher{opts: Options{
		SkipDir: func(path string) bool { return path == scratch },
	}}

	assert.True(t, w.skipDir(filepath.Join("/proj", ".git")))
	assert.True(t, w.skipDir(scratch))
	assert.False(t, w.skipDir(filepath.Join("/proj", "src", "main", "scala")))
}

func TestTakeDue(t *testing.T) {
	w := &Watcher{debounce: 50 * time.Millisecond}

	assert.False(t, w.takeDue(), "nothing pending")

	w.markPending()
	assert.False(t, w.takeDue(), "still inside the debounce window")

	time.Sleep(60 * time.Millisecond)
	assert.True(t, w.takeDue())
	assert.False(t, w.takeDue(), "burst consumed")
}

func TestNew_MissingDirIsNotFatal(t *testing.T) {
	w, err := New(Options{
		Dirs:     []string{filepath.Join(t.TempDir(), "does-not-exist")},
		Debounce: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestRun_TriggersOnChange(t *testing.T) {
	dir := t.TempDir()

	w, err := New(Options{
		Dirs:     []string{dir},
		Match:    func(name string) bool { return strings.HasSuffix(name, ".scala") },
		Debounce: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	triggered := make(chan struct{}, 1)
	go func() {
		_ = w.Run(ctx, func(ctx context.Context) error {
			select {
			case triggered <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Main.scala"), []byte("object Main"), 0644))

	select {
	case <-triggered:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a regeneration trigger after a source change")
	}
}
