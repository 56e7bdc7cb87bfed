package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// ReportFile resolves dependencies by reading a JSON report that a host build
// tool wrote out. Two shapes are accepted: a bare array of artifacts, or an
// object with artifacts grouped under arbitrary configuration names:
//
//	[{"type": "src", "file": "/path/lib-sources.jar"}, ...]
//
//	{"configurations": {"compile": [{"type": "src", "file": "..."}]}}
//
// Group names carry no meaning here; all groups are flattened in order of
// their sorted keys so a report resolves deterministically.
type ReportFile struct {
	Path string
}

type reportDoc struct {
	Configurations map[string][]Artifact `json:"configurations"`
}

// Resolve reads and parses the report file.
func (r *ReportFile) Resolve(ctx context.Context) (*Report, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("read dependency report %s: %w", r.Path, err)
	}

	// Bare array first; fall back to the grouped object form.
	var flat []Artifact
	if err := json.Unmarshal(data, &flat); err == nil {
		return &Report{Artifacts: flat}, nil
	}

	var doc reportDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse dependency report %s: %w", r.Path, err)
	}

	report := &Report{}
	for _, name := range sortedKeys(doc.Configurations) {
		report.Artifacts = append(report.Artifacts, doc.Configurations[name]...)
	}
	return report, nil
}

func sortedKeys(m map[string][]Artifact) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
