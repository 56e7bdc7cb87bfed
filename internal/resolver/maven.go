package resolver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"deptags/internal/logging"
)

// DefaultRepository is used when no repositories are configured.
const DefaultRepository = "https://repo1.maven.org/maven2"

// defaultWorkers bounds concurrent downloads. Resolution runs before the
// sequential generation pipeline, so concurrency here never touches the
// scratch directory.
const defaultWorkers = 4

// Coordinate identifies a Maven artifact as group:artifact:version.
type Coordinate struct {
	Group    string
	Artifact string
	Version  string
}

// ParseCoordinate parses a "group:artifact:version" string.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: want group:artifact:version", s)
	}
	return Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2]}, nil
}

func (c Coordinate) String() string {
	return c.Group + ":" + c.Artifact + ":" + c.Version
}

// SourcesPath is the repository-relative path of the sources jar, e.g.
// org/scalaz/scalaz-core/7.1.0/scalaz-core-7.1.0-sources.jar.
func (c Coordinate) SourcesPath() string {
	return strings.ReplaceAll(c.Group, ".", "/") + "/" + c.Artifact + "/" + c.Version +
		"/" + c.Artifact + "-" + c.Version + "-sources.jar"
}

// sourcesFileName is the cache file name for the coordinate's sources jar.
func (c Coordinate) sourcesFileName() string {
	return c.Group + "." + c.Artifact + "-" + c.Version + "-sources.jar"
}

// Maven downloads the sources jars for a fixed set of coordinates into a
// local cache directory and reports them as "src" artifacts. Coordinates
// whose sources jar is published in none of the repositories are skipped
// with a log line rather than failing resolution; not every dependency
// publishes sources, and the run is best-effort index coverage.
type Maven struct {
	Coordinates  []Coordinate
	Repositories []string
	CacheDir     string

	// Workers bounds concurrent downloads; defaults to 4.
	Workers int

	// Client defaults to an http.Client with a 60s timeout.
	Client *http.Client

	log *slog.Logger
}

// NewMaven creates a Maven resolver with default repositories and client.
func NewMaven(coords []Coordinate, repos []string, cacheDir string) *Maven {
	if len(repos) == 0 {
		repos = []string{DefaultRepository}
	}
	return &Maven{
		Coordinates:  coords,
		Repositories: repos,
		CacheDir:     cacheDir,
		Client:       &http.Client{Timeout: 60 * time.Second},
		log:          logging.New("resolver"),
	}
}

// Resolve fetches every coordinate's sources jar, reusing cached files.
// Downloads run concurrently under a bounded worker pool; a transport or
// server error on any coordinate fails resolution, while a plain 404 only
// drops that coordinate from the report.
func (m *Maven) Resolve(ctx context.Context) (*Report, error) {
	if err := os.MkdirAll(m.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create artifact cache %s: %w", m.CacheDir, err)
	}

	workers := m.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	semaphore := make(chan struct{}, workers)

	files := make([]string, len(m.Coordinates)) // "" when sources are unavailable
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex

	for i, coord := range m.Coordinates {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			file, err := m.fetch(gctx, coord)
			if err != nil {
				return err
			}
			mu.Lock()
			files[i] = file
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{}
	for _, file := range files {
		if file == "" {
			continue
		}
		report.Artifacts = append(report.Artifacts, Artifact{Type: TypeSrc, File: file})
	}
	return report, nil
}

// fetch returns the cached or freshly downloaded sources jar for coord, or
// "" when no repository publishes it.
func (m *Maven) fetch(ctx context.Context, coord Coordinate) (string, error) {
	cached := filepath.Join(m.CacheDir, coord.sourcesFileName())
	if _, err := os.Stat(cached); err == nil {
		m.log.Debug("sources jar cached", "coordinate", coord.String(), "file", cached)
		return cached, nil
	}

	for _, repo := range m.Repositories {
		url := strings.TrimRight(repo, "/") + "/" + coord.SourcesPath()
		found, err := m.download(ctx, url, cached)
		if err != nil {
			return "", fmt.Errorf("download %s: %w", coord.String(), err)
		}
		if found {
			m.log.Info("downloaded sources jar", "coordinate", coord.String(), "url", url)
			return cached, nil
		}
	}

	m.log.Info("no sources jar published, skipping", "coordinate", coord.String())
	return "", nil
}

// download writes the response body to dest via a temp file so a partial
// download never poses as a cached jar. Returns false on 404.
func (m *Maven) download(ctx context.Context, url, dest string) (bool, error) {
	client := m.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return false, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	return true, os.Rename(tmp.Name(), dest)
}
