// Package config loads the optional .deptags.yml project configuration.
//
// A missing file yields pure defaults; a present file overrides only the
// fields it sets. Relative paths in the file are resolved against the
// project base directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"deptags/internal/ctags"
)

// DefaultFileName is the configuration file looked up in the project root.
const DefaultFileName = ".deptags.yml"

// defaultSourceDirs are the conventional JVM-project source trees. Missing
// directories are dropped later by the generator's existence filter.
var defaultSourceDirs = []string{
	"src/main/scala",
	"src/main/java",
	"src/test/scala",
	"src/test/java",
}

// defaultScratchDir holds extracted dependency sources, relative to the
// project root.
const defaultScratchDir = ".deptags/dependency-src"

// Config is the parsed project configuration.
type Config struct {
	Ctags      CtagsConfig    `yaml:"ctags"`
	SourceDirs []string       `yaml:"source_dirs"`
	ScratchDir string         `yaml:"scratch_dir"`
	Resolver   ResolverConfig `yaml:"resolver"`
	Log        LogConfig      `yaml:"log"`
}

// CtagsConfig overrides the stock generation parameters. nil slices mean
// "not set, use the default"; an explicitly empty list stays empty (an empty
// language list disables both extraction and the --languages= argument).
type CtagsConfig struct {
	Executable    string   `yaml:"executable"`
	Excludes      []string `yaml:"excludes"`
	Languages     []string `yaml:"languages"`
	TagFile       string   `yaml:"tag_file"`
	RelativePaths bool     `yaml:"relative_paths"`
	ExtraArgs     []string `yaml:"extra_args"`
}

// ResolverConfig selects the dependency resolver. Report wins when both are
// set.
type ResolverConfig struct {
	// Report is the path to a JSON dependency report written by a host
	// build tool.
	Report string `yaml:"report"`

	// Maven fetches sources jars for explicit coordinates.
	Maven *MavenConfig `yaml:"maven"`
}

// MavenConfig configures the downloading resolver.
type MavenConfig struct {
	Coordinates  []string `yaml:"coordinates"`
	Repositories []string `yaml:"repositories"`
	CacheDir     string   `yaml:"cache_dir"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		SourceDirs: append([]string{}, defaultSourceDirs...),
		ScratchDir: defaultScratchDir,
	}
}

// Load reads the configuration file at path. A missing file is not an
// error; it returns Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Params materializes the ctags parameters, applying defaults for unset
// fields.
func (c *Config) Params() ctags.Params {
	p := ctags.DefaultParams()
	if c.Ctags.Executable != "" {
		p.Executable = c.Ctags.Executable
	}
	if c.Ctags.Excludes != nil {
		p.ExcludePatterns = c.Ctags.Excludes
	}
	if c.Ctags.Languages != nil {
		p.Languages = c.Ctags.Languages
	}
	if c.Ctags.TagFile != "" {
		p.TagFileName = c.Ctags.TagFile
	}
	p.RelativePaths = c.Ctags.RelativePaths
	p.ExtraArgs = c.Ctags.ExtraArgs
	return p
}

// AbsSourceDirs resolves the configured source directories against baseDir.
func (c *Config) AbsSourceDirs(baseDir string) []string {
	dirs := make([]string, len(c.SourceDirs))
	for i, dir := range c.SourceDirs {
		dirs[i] = absAgainst(baseDir, dir)
	}
	return dirs
}

// AbsScratchDir resolves the scratch directory against baseDir.
func (c *Config) AbsScratchDir(baseDir string) string {
	return absAgainst(baseDir, c.ScratchDir)
}

// Validate rejects scratch-directory configurations that would destroy
// project data: the scratch dir must not be the project root, contain it,
// or coincide with a configured source directory. The scratch dir's
// contents are wiped on every run.
func (c *Config) Validate(baseDir string) error {
	scratchDir := filepath.Clean(c.AbsScratchDir(baseDir))
	base := filepath.Clean(baseDir)

	if scratchDir == base {
		return fmt.Errorf("scratch dir %s is the project root; its contents are destroyed on every run", scratchDir)
	}
	if isAncestor(scratchDir, base) {
		return fmt.Errorf("scratch dir %s contains the project root %s", scratchDir, base)
	}
	for _, dir := range c.AbsSourceDirs(baseDir) {
		if filepath.Clean(dir) == scratchDir {
			return fmt.Errorf("scratch dir %s is also configured as a source dir", scratchDir)
		}
	}
	return nil
}

func absAgainst(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}

// isAncestor reports whether dir is an ancestor of (or equal to) child.
func isAncestor(dir, child string) bool {
	rel, err := filepath.Rel(dir, child)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
