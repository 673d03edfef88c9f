package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/server"

	ai "github.com/spetersoncode/mcpagent"
)

// StdioConnector launches an MCP server as a subprocess and talks to it over
// stdin/stdout. Each Connect starts a new process.
type StdioConnector struct {
	Command string
	Env     []string
	Args    []string
}

// NewStdioConnector creates a StdioConnector for the given executable.
//
// Example:
//
//	connector := mcp.NewStdioConnector("./weatherserver", nil)
//	session, err := connector.Connect(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
func NewStdioConnector(command string, env []string, args ...string) *StdioConnector {
	return &StdioConnector{Command: command, Env: env, Args: args}
}

// Connect starts the server process and initializes a session with it.
func (c *StdioConnector) Connect(ctx context.Context) (ai.Session, error) {
	mc, err := client.NewStdioMCPClient(c.Command, c.Env, c.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}
	return NewSession(ctx, mc, true)
}

// SSEConnector connects to an MCP server over HTTP server-sent events.
type SSEConnector struct {
	BaseURL string
}

// NewSSEConnector creates an SSEConnector for the given endpoint.
func NewSSEConnector(baseURL string) *SSEConnector {
	return &SSEConnector{BaseURL: baseURL}
}

// Connect opens the SSE stream and initializes a session.
func (c *SSEConnector) Connect(ctx context.Context) (ai.Session, error) {
	mc, err := client.NewSSEMCPClient(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSE MCP client: %w", err)
	}
	return NewSession(ctx, mc, false)
}

// InProcessConnector connects to an MCP server running in the same process.
// It is mostly useful in tests and for embedding tool servers.
type InProcessConnector struct {
	Server *server.MCPServer
}

// NewInProcessConnector creates an InProcessConnector for s.
func NewInProcessConnector(s *server.MCPServer) *InProcessConnector {
	return &InProcessConnector{Server: s}
}

// Connect creates an in-process client and initializes a session.
func (c *InProcessConnector) Connect(ctx context.Context) (ai.Session, error) {
	mc, err := client.NewInProcessClient(c.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-process MCP client: %w", err)
	}
	return NewSession(ctx, mc, false)
}
