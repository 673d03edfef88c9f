package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	ai "github.com/spetersoncode/mcpagent"
)

const (
	clientName    = "mcpagent"
	clientVersion = "1.0.0"
)

// Session is an initialized MCP client bound to one agent run.
// It implements [ai.Session]. Close is idempotent.
type Session struct {
	client *client.Client

	closeOnce sync.Once
	closeErr  error
}

var _ ai.Session = (*Session)(nil)

// NewSession starts (unless already started) and initializes c.
// On failure the client is closed.
//
// Stdio clients are started by their constructor; pass started=true for
// them. In-process and SSE clients need started=false.
func NewSession(ctx context.Context, c *client.Client, started bool) (*Session, error) {
	if !started {
		if err := c.Start(ctx); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to start MCP client: %w", err)
		}
	}

	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    clientName,
				Version: clientVersion,
			},
		},
	})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	return &Session{client: c}, nil
}

// ListTools fetches the server's tools in server order.
func (s *Session) ListTools(ctx context.Context) ([]ai.Tool, error) {
	result, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return FromMCPTools(result.Tools), nil
}

// CallTool calls a tool on the server. A result flagged as an error by the
// server is returned with IsError set, not as a Go error.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*ai.ToolResult, error) {
	result, err := s.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		return nil, err
	}
	return FromMCPCallToolResult(result), nil
}

// Close closes the connection to the MCP server.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}
