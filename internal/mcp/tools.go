package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"deptags/internal/config"
	"deptags/internal/generator"
	"deptags/internal/history"
	"deptags/internal/scratch"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602 // Invalid method parameters
	ErrorCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrorCodeGenerationBusy = -32001 // Another generation run is already active for the project
)

// handleGenerateTags handles the generate_tags tool invocation
func (s *Server) handleGenerateTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	cfg, err := config.Load(filepath.Join(path, config.DefaultFileName))
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid project configuration", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := cfg.Validate(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "unsafe scratch directory", map[string]interface{}{
			"error": err.Error(),
		})
	}

	params := cfg.Params()
	if languages, ok := stringSlice(args["languages"]); ok {
		params.Languages = languages
	}
	if relative, ok := args["relative_paths"].(bool); ok {
		params.RelativePaths = relative
	}

	gen, err := s.generatorFor(path, cfg)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to set up generator", map[string]interface{}{
			"error": err.Error(),
		})
	}

	result, err := gen.Run(ctx, generator.Context{
		Params:     params,
		SourceDirs: cfg.AbsSourceDirs(path),
		BaseDir:    path,
	})
	if errors.Is(err, generator.ErrGenerationInProgress) {
		return nil, newMCPError(ErrorCodeGenerationBusy, "a generation run is already in progress for this project", nil)
	}
	if err != nil {
		data := map[string]interface{}{"error": err.Error()}
		if result != nil {
			data["command"] = result.Command
		}
		return nil, newMCPError(ErrorCodeInternalError, "generation failed", data)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"generated":          true,
		"tag_file":           params.TagFileName,
		"archives_attempted": result.Attempted,
		"archives_failed":    result.Failed,
		"command":            result.Command,
		"duration_ms":        result.Duration.Milliseconds(),
	})), nil
}

// handleRunHistory handles the tag_run_history tool invocation
func (s *Server) handleRunHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	runs, err := s.history.ListRuns(ctx, path, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list runs", map[string]interface{}{
			"error": err.Error(),
		})
	}

	entries := make([]map[string]interface{}, 0, len(runs))
	for _, run := range runs {
		entries = append(entries, runEntry(run))
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"path": path,
		"runs": entries,
	})), nil
}

// handleClearScratch handles the clear_scratch tool invocation
func (s *Server) handleClearScratch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	cfg, err := config.Load(filepath.Join(path, config.DefaultFileName))
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid project configuration", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := cfg.Validate(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "unsafe scratch directory", map[string]interface{}{
			"error": err.Error(),
		})
	}

	scratchDir := cfg.AbsScratchDir(path)
	if err := scratch.NewManager(scratchDir).Clear(); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to clear scratch directory", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"cleared":     true,
		"scratch_dir": scratchDir,
	})), nil
}

// Helper functions

func runEntry(run *history.Run) map[string]interface{} {
	entry := map[string]interface{}{
		"id":                 run.ID,
		"succeeded":          run.Succeeded,
		"exit_code":          run.ExitCode,
		"archives_attempted": run.ArchivesAttempted,
		"archives_failed":    run.ArchivesFailed,
		"command":            run.CommandLine,
		"started_at":         run.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		"finished_at":        run.FinishedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if run.ErrorText != "" {
		entry["error"] = run.ErrorText
	}
	return entry
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks that a path is an absolute, existing directory.
func validatePath(path string) error {
	if path == "" {
		return errors.New("path is required")
	}
	if !filepath.IsAbs(path) {
		return errors.New("path must be absolute")
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return errors.New("path does not exist")
	}
	if err != nil {
		return errors.New("path is not readable")
	}
	if !info.IsDir() {
		return errors.New("path is not a directory")
	}
	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok { // JSON numbers decode as float64
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// stringSlice coerces a JSON array parameter into []string.
func stringSlice(v interface{}) ([]string, bool) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
