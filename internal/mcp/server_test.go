package mcp

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.history.Close() })
	return s
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// newTestProject lays out a project with one dependency sources jar, a JSON
// dependency report, and a .deptags.yml pointing the executable at a stub
// script, so generation runs end to end without a real ctags install.
func newTestProject(t *testing.T) string {
	t.Helper()
	base := t.TempDir()

	srcDir := filepath.Join(base, "src", "main", "scala")
	require.NoError(t, os.MkdirAll(srcDir, 0755))

	jar := filepath.Join(base, "lib-sources.jar")
	f, err := os.Create(jar)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	entry, err := w.Create("Lib.scala")
	require.NoError(t, err)
	_, err = entry.Write([]byte("object Lib"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	report := filepath.Join(base, "report.json")
	doc := fmt.Sprintf(`[{"type":"src","file":%q},{"type":"pom","file":"ignored.pom"}]`, jar)
	require.NoError(t, os.WriteFile(report, []byte(doc), 0644))

	stub := filepath.Join(base, "fake-ctags")
	require.NoError(t, os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0755))

	cfg := fmt.Sprintf("ctags:\n  executable: %s\nresolver:\n  report: report.json\n", stub)
	require.NoError(t, os.WriteFile(filepath.Join(base, ".deptags.yml"), []byte(cfg), 0644))

	return base
}

func TestNewServer(t *testing.T) {
	s := newTestServer(t)

	assert.NotNil(t, s.mcp, "MCP server should be initialized")
	assert.NotNil(t, s.history, "run history should be initialized")
	assert.NotNil(t, s.generators)
}

func TestGenerateTags_RequiresPath(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleGenerateTags(context.Background(), callRequest("generate_tags", map[string]interface{}{}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestGenerateTags_RejectsRelativePath(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleGenerateTags(context.Background(), callRequest("generate_tags", map[string]interface{}{
		"path": "relative/project",
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestGenerateTags_EndToEnd(t *testing.T) {
	s := newTestServer(t)
	base := newTestProject(t)

	result, err := s.handleGenerateTags(context.Background(), callRequest("generate_tags", map[string]interface{}{
		"path": base,
	}))
	require.NoError(t, err)
	require.NotNil(t, result)

	// The source archive was materialized into the scratch dir.
	extracted := filepath.Join(base, ".deptags", "dependency-src", "Lib.scala")
	content, err := os.ReadFile(extracted)
	require.NoError(t, err)
	assert.Equal(t, "object Lib", string(content))

	// And the run landed in history.
	runs, err := s.history.ListRuns(context.Background(), base, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Succeeded)
	assert.Equal(t, 1, runs[0].ArchivesAttempted)
}

func TestRunHistory_LimitValidation(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleRunHistory(context.Background(), callRequest("tag_run_history", map[string]interface{}{
		"path":  "/proj",
		"limit": float64(500),
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestClearScratch(t *testing.T) {
	s := newTestServer(t)
	base := newTestProject(t)

	scratchDir := filepath.Join(base, ".deptags", "dependency-src")
	require.NoError(t, os.MkdirAll(scratchDir, 0755))
	stale := filepath.Join(scratchDir, "stale.scala")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	_, err := s.handleClearScratch(context.Background(), callRequest("clear_scratch", map[string]interface{}{
		"path": base,
	}))
	require.NoError(t, err)

	_, statErr := os.Stat(stale)
	assert.True(t, os.IsNotExist(statErr))
}
