package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ziadkadry99/caseshelf/internal/logging"
	"github.com/ziadkadry99/caseshelf/internal/shell"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the case library as tools.
type Server struct {
	session *shell.Session
	log     *zap.Logger
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server over a loaded session. Search tools
// answer once the session's index build has finished.
func NewServer(session *shell.Session, logger *zap.Logger) *Server {
	s := &Server{
		session: session,
		log:     logging.OrNop(logger).Named("mcp"),
	}

	s.mcp = server.NewMCPServer(
		"caseshelf",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listCasesTool, s.handleListCases)
	s.mcp.AddTool(getCaseTool, s.handleGetCase)
	s.mcp.AddTool(searchCasesTool, s.handleSearchCases)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
