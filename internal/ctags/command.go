package ctags

import (
	"path/filepath"
	"strings"
)

// Params holds the generation parameters for one run. Immutable once built;
// construct with DefaultParams and override fields as needed.
type Params struct {
	Executable      string
	ExcludePatterns []string
	Languages       []string
	TagFileName     string
	RelativePaths   bool
	ExtraArgs       []string
}

// DefaultParams returns the stock parameters: ctags over scala and java
// sources, excluding log directories, writing .tags with absolute paths.
func DefaultParams() Params {
	return Params{
		Executable:      "ctags",
		ExcludePatterns: []string{"log"},
		Languages:       []string{"scala", "java"},
		TagFileName:     ".tags",
	}
}

// Command is one composed indexer invocation.
type Command struct {
	Executable string
	Excludes   []string
	Languages  string // "--languages=..." or "" when the language list is empty
	TagFile    string
	Extras     []string
	Dirs       []string
}

// Compose builds the indexer command for the given source directories.
//
// Directory tokens are base-relative when params.RelativePaths is set,
// falling back to absolute when no relative path exists; otherwise always
// absolute. With relative paths the extra arguments gain a leading
// --tag-relative=yes so paths inside the tag file match the directory tokens.
func Compose(params Params, srcDirs []string, baseDir string) Command {
	dirs := make([]string, len(srcDirs))
	for i, dir := range srcDirs {
		dirs[i] = dirToken(dir, baseDir, params.RelativePaths)
	}

	excludes := make([]string, len(params.ExcludePatterns))
	for i, pattern := range params.ExcludePatterns {
		excludes[i] = "--exclude=" + pattern
	}

	languages := ""
	if len(params.Languages) > 0 {
		languages = "--languages=" + strings.Join(params.Languages, ",")
	}

	extras := params.ExtraArgs
	if params.RelativePaths {
		extras = append([]string{"--tag-relative=yes"}, extras...)
	}

	return Command{
		Executable: params.Executable,
		Excludes:   excludes,
		Languages:  languages,
		TagFile:    params.TagFileName,
		Extras:     extras,
		Dirs:       dirs,
	}
}

func dirToken(dir, baseDir string, relative bool) string {
	if relative {
		if rel, err := filepath.Rel(baseDir, dir); err == nil {
			return rel
		}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// Argv returns the exec-ready token vector with empty segments dropped.
func (c Command) Argv() []string {
	argv := []string{c.Executable}
	argv = append(argv, c.Excludes...)
	if c.Languages != "" {
		argv = append(argv, c.Languages)
	}
	argv = append(argv, "-f", c.TagFile)
	argv = append(argv, c.Extras...)
	argv = append(argv, "-R")
	argv = append(argv, c.Dirs...)
	return argv
}

// String renders the legacy single-string command line. Empty segments leave
// doubled spaces, byte-matching the command strings earlier tooling logged.
// Tokens are not quoted; this is an audit string, not shell input.
func (c Command) String() string {
	return strings.Join([]string{
		c.Executable,
		strings.Join(c.Excludes, " "),
		c.Languages,
		"-f",
		c.TagFile,
		strings.Join(c.Extras, " "),
		"-R",
		strings.Join(c.Dirs, " "),
	}, " ")
}
