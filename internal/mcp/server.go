package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"deptags/internal/config"
	"deptags/internal/ctags"
	"deptags/internal/generator"
	"deptags/internal/history"
	"deptags/internal/scratch"
)

const (
	// ServerName is the MCP server name
	ServerName = "deptags"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDataPath is the default location for server state
	DefaultDataPath = "~/.deptags"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	history history.Storage

	// generators holds one generator per project path so the run lock
	// serializes overlapping tool calls on the same scratch directory.
	mu         sync.Mutex
	generators map[string]*generator.Generator
}

// NewServer creates a new MCP server instance. dataPath holds the run
// history database; "" or "~/.deptags" expands under the user's home.
func NewServer(dataPath string) (*Server, error) {
	if dataPath == "" || dataPath == DefaultDataPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dataPath = filepath.Join(home, ".deptags")
	}

	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := history.NewSQLiteStorage(filepath.Join(dataPath, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize run history: %w", err)
	}

	s := &Server{
		mcp:        server.NewMCPServer(ServerName, ServerVersion),
		history:    store,
		generators: make(map[string]*generator.Generator),
	}
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.history.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(generateTagsTool(), s.handleGenerateTags)
	s.mcp.AddTool(runHistoryTool(), s.handleRunHistory)
	s.mcp.AddTool(clearScratchTool(), s.handleClearScratch)
}

// generatorFor returns the project's generator, creating it on first use.
func (s *Server) generatorFor(baseDir string, cfg *config.Config) (*generator.Generator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen, ok := s.generators[baseDir]; ok {
		return gen, nil
	}

	res, err := cfg.BuildResolver(baseDir)
	if err != nil {
		return nil, err
	}

	gen := generator.New(
		res,
		scratch.NewManager(cfg.AbsScratchDir(baseDir)),
		ctags.NewRunner(),
		s.history,
	)
	s.generators[baseDir] = gen
	return gen, nil
}
