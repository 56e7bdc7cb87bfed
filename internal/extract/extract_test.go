package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deptags/internal/resolver"
)

// fakeMaterializer records the archives it was asked to extract and fails
// for paths listed in failOn.
type fakeMaterializer struct {
	archives []string
	failOn   map[string]bool
}

func (f *fakeMaterializer) Materialize(archivePath string, keep func(string) bool) error {
	f.archives = append(f.archives, archivePath)
	if f.failOn[archivePath] {
		return errors.New("corrupt archive")
	}
	return nil
}

func keepAll(string) bool { return true }

func TestExtract_OnlySourceArtifacts(t *testing.T) {
	fake := &fakeMaterializer{}
	e := New(fake)

	report := &resolver.Report{Artifacts: []resolver.Artifact{
		{Type: "pom", File: "a.pom"},
		{Type: "src", File: "a-sources.jar"},
		{Type: "jar", File: "a.jar"},
		{Type: "source", File: "b-sources.jar"},
	}}

	sum := e.Extract(context.Background(), report, keepAll)

	assert.Equal(t, 2, sum.Attempted)
	assert.Equal(t, 0, sum.Failed)
	assert.Equal(t, []string{"a-sources.jar", "b-sources.jar"}, fake.archives)
}

func TestExtract_FailureDoesNotAbort(t *testing.T) {
	fake := &fakeMaterializer{failOn: map[string]bool{"bad-sources.jar": true}}
	e := New(fake)

	report := &resolver.Report{Artifacts: []resolver.Artifact{
		{Type: "src", File: "bad-sources.jar"},
		{Type: "src", File: "good-sources.jar"},
	}}

	sum := e.Extract(context.Background(), report, keepAll)

	assert.Equal(t, 2, sum.Attempted)
	assert.Equal(t, 1, sum.Failed)
	require.Len(t, sum.Errors, 1)
	assert.Contains(t, sum.Errors[0], "bad-sources.jar")

	// The good archive was still processed after the failure.
	assert.Equal(t, []string{"bad-sources.jar", "good-sources.jar"}, fake.archives)
}

func TestExtract_EmptyReport(t *testing.T) {
	fake := &fakeMaterializer{}
	sum := New(fake).Extract(context.Background(), &resolver.Report{}, keepAll)

	assert.Equal(t, 0, sum.Attempted)
	assert.Equal(t, 0, sum.Failed)
	assert.Empty(t, fake.archives)
}

func TestExtract_CancelledContextStops(t *testing.T) {
	fake := &fakeMaterializer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := &resolver.Report{Artifacts: []resolver.Artifact{
		{Type: "src", File: "a-sources.jar"},
	}}

	sum := New(fake).Extract(ctx, report, keepAll)
	assert.Equal(t, 0, sum.Attempted)
	assert.Empty(t, fake.archives)
}
