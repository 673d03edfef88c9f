package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	ai "github.com/spetersoncode/mcpagent"
)

// ToolHandler executes a served tool. A returned error is reported to the
// client as an error result, as is a result with IsError set.
type ToolHandler func(ctx context.Context, args map[string]any) (*ai.ToolResult, error)

// ServerTool pairs a tool definition with its handler.
type ServerTool struct {
	Tool    ai.Tool
	Handler ToolHandler
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name    string
	version string
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// NewServer creates an MCP server that exposes tools in the given order.
// Tools without a handler are skipped.
func NewServer(tools []ServerTool, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "mcpagent-server",
		version: "1.0.0",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
	)

	for _, t := range tools {
		if t.Handler == nil {
			continue
		}
		s.AddTool(ToMCPTool(t.Tool), toMCPHandler(t.Handler))
	}

	return s
}

func toMCPHandler(handler ToolHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}

		result, err := handler(ctx, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return ToMCPCallToolResult(result), nil
	}
}

// ServeStdio serves tools over stdin/stdout until stdin closes.
func ServeStdio(tools []ServerTool, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(tools, opts...))
}
