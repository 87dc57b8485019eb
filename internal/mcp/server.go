// Package mcp is the server role of the bridge: it exposes the host's
// capabilities (search, calendar/email, code host, knowledge graph) as a
// fixed catalog of MCP tools and routes incoming invocations to the
// collaborators behind the service locator.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"attache/internal/logging"
	"attache/internal/services"
)

const serverVersion = "1.0.0"

// Server routes tool invocations to the host collaborators. The dispatch
// table is closed: it is checked against the declared catalog at
// construction so a tool can never exist without a handler.
type Server struct {
	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
	locator    *services.Locator
	handlers   map[string]server.ToolHandlerFunc
	now        func() time.Time
}

// NewServer builds the server and registers the static tool catalog. It
// fails when the catalog and the dispatch table disagree.
func NewServer(locator *services.Locator) (*Server, error) {
	s := &Server{
		locator: locator,
		now:     time.Now,
	}
	s.handlers = map[string]server.ToolHandlerFunc{
		"search":                    s.handleSearch,
		"search_emails":             s.handleSearchEmails,
		"search_drive":              s.handleSearchDrive,
		"get_calendar_events":       s.handleGetCalendarEvents,
		"check_availability":        s.handleCheckAvailability,
		"get_unread_counts":         s.handleGetUnreadCounts,
		"get_github_prs":            s.handleGetPullRequests,
		"get_github_issues":         s.handleGetIssues,
		"search_github_code":        s.handleSearchCode,
		"find_person":               s.handleFindPerson,
		"get_person_activity":       s.handleGetPersonActivity,
		"get_knowledge_graph_stats": s.handleGetGraphStats,
		"get_daily_briefing":        s.handleGetDailyBriefing,
	}

	mcpServer := server.NewMCPServer(
		"attache",
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	declared := make(map[string]bool)
	for _, tool := range catalog() {
		handler, ok := s.handlers[tool.Name]
		if !ok {
			return nil, fmt.Errorf("declared tool %q has no handler", tool.Name)
		}
		declared[tool.Name] = true
		mcpServer.AddTool(tool, s.wrap(tool.Name, handler))
	}
	for name := range s.handlers {
		if !declared[name] {
			return nil, fmt.Errorf("handler %q has no declared tool", name)
		}
	}

	s.mcpServer = mcpServer
	s.httpServer = server.NewStreamableHTTPServer(mcpServer)
	return s, nil
}

// wrap converts any handler failure into a textual error result so a
// collaborator exception never terminates the server.
func (s *Server) wrap(name string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := handler(ctx, request)
		if err != nil {
			logging.Error("Error executing tool %s: %v", name, err)
			return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
		}
		return result, nil
	}
}

// Dispatch routes one invocation by name. An unrecognized name yields a
// textual "Unknown tool" payload, never an error.
func (s *Server) Dispatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.Params.Name
	handler, ok := s.handlers[name]
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("Unknown tool: %s", name)), nil
	}
	return s.wrap(name, handler)(ctx, request)
}

// Tools returns the declared catalog, independent of collaborator state.
func (s *Server) Tools() []mcp.Tool {
	return catalog()
}

// Start serves MCP over streamable HTTP on the given port.
func (s *Server) Start(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("Starting MCP server on %s (streamable HTTP)", addr)
	if err := s.httpServer.Start(addr); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// StartStdio serves MCP over the process's standard streams.
func (s *Server) StartStdio(ctx context.Context) error {
	logging.Info("Starting MCP server on stdio")
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP transport, if running.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("MCP server shutting down")
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("MCP server shutdown error: %w", err)
		}
	}
	return nil
}
