package ctags

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"deptags/internal/logging"
)

// Runner executes a composed command as a subprocess.
type Runner struct {
	log *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner() *Runner {
	return &Runner{log: logging.New("ctags")}
}

// Run executes the command with the given working directory, blocking until
// it exits. The full command line is info-logged before execution for
// auditability. There is no internal timeout; cancelling ctx kills the
// child. On a non-zero exit the child's stderr is folded into the returned
// error, uninterpreted.
func (r *Runner) Run(ctx context.Context, cmd Command, workDir string) error {
	r.log.Info("running tag indexer", "command", cmd.String(), "dir", workDir)

	argv := cmd.Argv()
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Dir = workDir

	var stderr bytes.Buffer
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", cmd.Executable, err, msg)
		}
		return fmt.Errorf("%s: %w", cmd.Executable, err)
	}
	return nil
}

// ExitCode extracts the subprocess exit code from a Run error: 0 for nil,
// the child's code for an exit error, -1 otherwise (e.g. executable not
// found).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
