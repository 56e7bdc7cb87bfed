package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"deptags/internal/resolver"
)

// BuildResolver constructs the dependency resolver selected by the
// configuration. A report path wins over maven coordinates when both are
// set; with neither, resolution yields an empty report so a project with no
// dependencies still gets its own sources indexed.
func (c *Config) BuildResolver(baseDir string) (resolver.Resolver, error) {
	if c.Resolver.Report != "" {
		return &resolver.ReportFile{Path: absAgainst(baseDir, c.Resolver.Report)}, nil
	}

	if m := c.Resolver.Maven; m != nil {
		coords := make([]resolver.Coordinate, 0, len(m.Coordinates))
		for _, raw := range m.Coordinates {
			coord, err := resolver.ParseCoordinate(raw)
			if err != nil {
				return nil, fmt.Errorf("resolver.maven.coordinates: %w", err)
			}
			coords = append(coords, coord)
		}

		cacheDir := m.CacheDir
		if cacheDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("resolve artifact cache dir: %w", err)
			}
			cacheDir = filepath.Join(home, ".deptags", "artifact-cache")
		} else {
			cacheDir = absAgainst(baseDir, cacheDir)
		}

		return resolver.NewMaven(coords, m.Repositories, cacheDir), nil
	}

	return emptyResolver{}, nil
}

// emptyResolver reports no dependencies.
type emptyResolver struct{}

func (emptyResolver) Resolve(ctx context.Context) (*resolver.Report, error) {
	return &resolver.Report{}, nil
}
