package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// generateTagsTool returns the tool definition for generate_tags
func generateTagsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "generate_tags",
		Description: "Generate a combined ctags index for a project and its dependency sources",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the project root (its .deptags.yml is honored when present)",
				},
				"languages": map[string]interface{}{
					"type":        "array",
					"description": "Override the configured language list (extensions, e.g. [\"scala\",\"java\"])",
					"items":       map[string]interface{}{"type": "string"},
				},
				"relative_paths": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, emit base-relative paths in the tag file",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// runHistoryTool returns the tool definition for tag_run_history
func runHistoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "tag_run_history",
		Description: "List recent tag-generation runs for a project",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the project root",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of runs to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"path"},
		},
	}
}

// clearScratchTool returns the tool definition for clear_scratch
func clearScratchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "clear_scratch",
		Description: "Wipe a project's dependency-source scratch directory",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the project root",
				},
			},
			Required: []string{"path"},
		},
	}
}
