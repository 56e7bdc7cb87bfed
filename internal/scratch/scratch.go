package scratch

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"deptags/internal/logging"
)

// Manager owns a single scratch directory. See the package comment for the
// ownership rules; callers must never point Dir at a directory used for
// anything else.
type Manager struct {
	// Dir is the scratch directory. Its contents are destroyed on every
	// generation run.
	Dir string

	log *slog.Logger
}

// NewManager creates a manager for the given scratch directory. The directory
// does not need to exist yet; Materialize creates it on demand.
func NewManager(dir string) *Manager {
	return &Manager{
		Dir: dir,
		log: logging.New("scratch"),
	}
}

// Clear recursively removes everything inside the scratch directory, leaving
// the directory itself as an empty shell. A missing directory is a no-op
// success. Only genuine filesystem errors (permissions, held handles) fail.
func (m *Manager) Clear() error {
	entries, err := os.ReadDir(m.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read scratch dir %s: %w", m.Dir, err)
	}

	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(m.Dir, entry.Name())); err != nil {
			return fmt.Errorf("clear scratch dir %s: %w", m.Dir, err)
		}
	}
	return nil
}

// Materialize extracts every entry of the zip archive accepted by keep into
// the scratch directory, preserving relative paths and creating intermediate
// directories as needed. Rejected entries are skipped without being read.
// On failure partway the already-extracted files stay put; the next run's
// Clear removes them.
func (m *Manager) Materialize(archivePath string, keep func(name string) bool) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer func() { _ = r.Close() }()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !keep(f.Name) {
			continue
		}

		dest, ok := m.entryPath(f.Name)
		if !ok {
			m.log.Debug("skipping archive entry escaping scratch dir",
				"archive", archivePath, "entry", f.Name)
			continue
		}

		if err := extractEntry(f, dest); err != nil {
			return fmt.Errorf("extract %s from %s: %w", f.Name, archivePath, err)
		}
	}
	return nil
}

// entryPath maps an archive entry name to its destination under Dir, refusing
// names that would land outside the scratch directory (absolute paths or
// ".." traversal).
func (m *Manager) entryPath(name string) (string, bool) {
	cleaned := filepath.FromSlash(name)
	if !filepath.IsLocal(cleaned) {
		return "", false
	}
	return filepath.Join(m.Dir, cleaned), true
}

func extractEntry(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
