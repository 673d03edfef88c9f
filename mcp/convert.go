// Package mcp connects the agent to MCP (Model Context Protocol) tool servers.
//
// MCP is a protocol that lets a client discover and call tools hosted by a
// separate server. This package provides both sides:
//
//   - Client: [Session] implements [mcpagent.Session] over an MCP client, and
//     the connectors ([StdioConnector], [SSEConnector], [InProcessConnector])
//     open a fresh Session for every agent run.
//   - Server: [NewServer] exposes plain Go functions as MCP tools, which is
//     how the reference weather server is built.
//
// # Connecting to a Server
//
//	connector := mcp.NewStdioConnector("./weatherserver", nil)
//	a := agent.New(model, connector)
//
// # Serving Tools
//
//	s := mcp.NewServer([]mcp.ServerTool{{
//	    Tool:    mcpagent.Tool{Name: "ping", Description: "Ping pong"},
//	    Handler: func(ctx context.Context, args map[string]any) (*mcpagent.ToolResult, error) {
//	        return mcpagent.NewTextResult("pong"), nil
//	    },
//	}}, mcp.WithName("ping-server"))
//
//	if err := server.ServeStdio(s); err != nil {
//	    log.Fatal(err)
//	}
package mcp

import (
	"bytes"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	ai "github.com/spetersoncode/mcpagent"
)

const emptyObjectSchema = `{"type":"object","properties":{}}`

// ToMCPTool converts a Tool to an MCP Tool.
// Tool.Parameters is used as the raw input schema; an empty value becomes an
// object schema without properties.
func ToMCPTool(t ai.Tool) mcp.Tool {
	schema := t.Parameters
	if schema == "" {
		schema = emptyObjectSchema
	}
	return mcp.NewToolWithRawSchema(t.Name, t.Description, json.RawMessage(schema))
}

// FromMCPTool converts an MCP Tool to a Tool.
// The input schema is stored in Parameters as compact JSON.
func FromMCPTool(t mcp.Tool) ai.Tool {
	var schema []byte
	if len(t.RawInputSchema) > 0 {
		schema = t.RawInputSchema
	} else if data, err := json.Marshal(t.InputSchema); err == nil {
		schema = data
	}

	return ai.Tool{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  compactJSON(schema),
	}
}

// FromMCPTools converts MCP Tools to Tools, preserving order.
func FromMCPTools(tools []mcp.Tool) []ai.Tool {
	result := make([]ai.Tool, len(tools))
	for i, t := range tools {
		result[i] = FromMCPTool(t)
	}
	return result
}

func compactJSON(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return string(data)
	}
	return buf.String()
}

// FromMCPCallToolResult converts an MCP CallToolResult into a structured
// ToolResult whose parts mirror the result content in order.
// Structured content, when present, is appended as a trailing text part.
// A nil result converts to nil.
func FromMCPCallToolResult(result *mcp.CallToolResult) *ai.ToolResult {
	if result == nil {
		return nil
	}

	parts := make([]ai.ContentPart, 0, len(result.Content))
	for _, c := range result.Content {
		if part, ok := fromMCPContent(c); ok {
			parts = append(parts, part)
		}
	}

	if result.StructuredContent != nil {
		if data, err := json.Marshal(result.StructuredContent); err == nil {
			parts = append(parts, ai.NewTextPart(string(data)))
		}
	}

	return &ai.ToolResult{
		Parts:   parts,
		IsError: result.IsError,
	}
}

func fromMCPContent(c mcp.Content) (ai.ContentPart, bool) {
	switch v := c.(type) {
	case mcp.TextContent:
		return ai.NewTextPart(v.Text), true
	case *mcp.TextContent:
		return ai.NewTextPart(v.Text), true
	case mcp.ImageContent:
		return ai.ContentPart{Type: ai.ContentPartTypeImage, Data: v.Data, MimeType: v.MIMEType}, true
	case *mcp.ImageContent:
		return ai.ContentPart{Type: ai.ContentPartTypeImage, Data: v.Data, MimeType: v.MIMEType}, true
	case mcp.AudioContent:
		return ai.ContentPart{Type: ai.ContentPartTypeAudio, Data: v.Data, MimeType: v.MIMEType}, true
	case *mcp.AudioContent:
		return ai.ContentPart{Type: ai.ContentPartTypeAudio, Data: v.Data, MimeType: v.MIMEType}, true
	case mcp.EmbeddedResource:
		return fromResource(v.Resource), true
	case *mcp.EmbeddedResource:
		return fromResource(v.Resource), true
	}
	return ai.ContentPart{}, false
}

func fromResource(r mcp.ResourceContents) ai.ContentPart {
	switch v := r.(type) {
	case mcp.TextResourceContents:
		return ai.ContentPart{Type: ai.ContentPartTypeResource, Text: v.Text, MimeType: v.MIMEType}
	case *mcp.TextResourceContents:
		return ai.ContentPart{Type: ai.ContentPartTypeResource, Text: v.Text, MimeType: v.MIMEType}
	case mcp.BlobResourceContents:
		return ai.ContentPart{Type: ai.ContentPartTypeResource, Data: v.Blob, MimeType: v.MIMEType}
	case *mcp.BlobResourceContents:
		return ai.ContentPart{Type: ai.ContentPartTypeResource, Data: v.Blob, MimeType: v.MIMEType}
	}
	return ai.ContentPart{Type: ai.ContentPartTypeResource}
}

// ToMCPCallToolResult converts a ToolResult to an MCP CallToolResult.
func ToMCPCallToolResult(result *ai.ToolResult) *mcp.CallToolResult {
	if result == nil {
		return mcp.NewToolResultError("tool returned no result")
	}
	if result.Parts == nil {
		if result.IsError {
			return mcp.NewToolResultError(result.Text)
		}
		return mcp.NewToolResultText(result.Text)
	}

	out := &mcp.CallToolResult{IsError: result.IsError}
	for _, p := range result.Parts {
		switch p.Type {
		case ai.ContentPartTypeText:
			out.Content = append(out.Content, mcp.NewTextContent(p.Text))
		case ai.ContentPartTypeImage:
			out.Content = append(out.Content, mcp.NewImageContent(p.Data, p.MimeType))
		case ai.ContentPartTypeAudio:
			out.Content = append(out.Content, mcp.NewAudioContent(p.Data, p.MimeType))
		}
	}
	return out
}
