// Package mcpserver exposes the chat tools to MCP clients over streamable HTTP.
package mcpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ashureev/shopchat/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Dispatcher runs a parsed tool call.
type Dispatcher interface {
	Dispatch(ctx context.Context, call tools.Call) (tools.Result, error)
}

// Server serves searchProducts and convertCurrencies through MCP.
type Server struct {
	mcp        *server.MCPServer
	dispatcher Dispatcher
	logger     *slog.Logger
}

// New creates a Server backed by dispatcher.
func New(dispatcher Dispatcher, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcp:        server.NewMCPServer("shopchat", version, server.WithToolCapabilities(false)),
		dispatcher: dispatcher,
		logger:     logger,
	}
	for _, tool := range tools.Definitions() {
		s.mcp.AddTool(tool, s.handleTool)
	}
	return s
}

// Handler returns the streamable HTTP handler to mount at /mcp.
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp, server.WithStateLess(true))
}

// handleTool runs one MCP tool call. Tool failures are reported to the
// client as error results rather than protocol errors.
func (s *Server) handleTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.Params.Name

	call, err := tools.ParseArguments(name, req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.dispatcher.Dispatch(ctx, call)
	if err != nil {
		s.logger.Warn("MCP tool call failed", "tool", name, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	if text, ok := result.(tools.TextResult); ok {
		return mcp.NewToolResultText(string(text)), nil
	}
	encoded, err := tools.Encode(result)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(encoded), nil
}
