// Package resolver is the boundary to whatever resolves a project's
// dependencies. The generator only needs a finished report of artifacts with
// a type tag and a backing archive file; version solving and conflict
// resolution happen on the other side of this interface.
package resolver

import "context"

// Artifact type literals marking a source archive. "src" is what build-tool
// dependency reports actually carry; it is a protocol constant of the
// dependency-resolution ecosystem, not a choice made here.
const (
	TypeSrc    = "src"
	TypeSource = "source"
)

// Artifact is one resolved dependency artifact: a type tag and the archive
// file backing it on disk.
type Artifact struct {
	Type string `json:"type" yaml:"type"`
	File string `json:"file" yaml:"file"`
}

// IsSource reports whether the artifact is a source archive and therefore
// eligible for extraction.
func (a Artifact) IsSource() bool {
	return a.Type == TypeSrc || a.Type == TypeSource
}

// Report is the finished output of dependency resolution.
type Report struct {
	Artifacts []Artifact
}

// Sources returns only the source artifacts, preserving report order.
func (r *Report) Sources() []Artifact {
	var out []Artifact
	for _, a := range r.Artifacts {
		if a.IsSource() {
			out = append(out, a)
		}
	}
	return out
}

// Resolver produces a dependency report. Implementations may read a report
// written by a host build tool or fetch archives from a remote repository;
// either way a returned error is fatal to the generation run.
type Resolver interface {
	Resolve(ctx context.Context) (*Report, error)
}
