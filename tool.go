package mcpagent

import "context"

// Tool describes a capability advertised by a tool server.
type Tool struct {
	// Name is the unique identifier for the tool.
	Name string `json:"name"`
	// Description explains what the tool does (helps the model decide when to use it).
	Description string `json:"description,omitempty"`
	// Parameters is optional free-form documentation of the tool's arguments.
	// MCP servers report a JSON Schema, which is stored here verbatim.
	Parameters string `json:"parameters,omitempty"`
}

// ContentPartType represents the type of a tool result content part.
type ContentPartType string

const (
	ContentPartTypeText     ContentPartType = "text"
	ContentPartTypeImage    ContentPartType = "image"
	ContentPartTypeAudio    ContentPartType = "audio"
	ContentPartTypeResource ContentPartType = "resource"
)

// ContentPart is a single part of a structured tool result.
type ContentPart struct {
	// Type indicates the content type.
	Type ContentPartType `json:"type"`
	// Text contains the text content. Only used when Type is "text" or "resource".
	Text string `json:"text,omitempty"`
	// Data contains base64-encoded binary content for image and audio parts.
	Data string `json:"data,omitempty"`
	// MimeType describes Data, or the resource's media type.
	MimeType string `json:"mimeType,omitempty"`
}

// NewTextPart creates a text content part.
func NewTextPart(text string) ContentPart {
	return ContentPart{
		Type: ContentPartTypeText,
		Text: text,
	}
}

// ToolResult is the outcome of a single tool call.
//
// A server returns either a bare text value (Parts is nil and Text holds the
// value) or an ordered list of content parts.
type ToolResult struct {
	Text    string        `json:"text,omitempty"`
	Parts   []ContentPart `json:"parts,omitempty"`
	IsError bool          `json:"isError,omitempty"`
}

// NewTextResult creates a bare text tool result.
func NewTextResult(text string) *ToolResult {
	return &ToolResult{Text: text}
}

// NewPartsResult creates a structured tool result from content parts.
func NewPartsResult(parts ...ContentPart) *ToolResult {
	if parts == nil {
		parts = []ContentPart{}
	}
	return &ToolResult{Parts: parts}
}

// Session is a live binding to a tool-execution transport for one run.
type Session interface {
	// ListTools returns the tools advertised by the server, in server order.
	ListTools(ctx context.Context) ([]Tool, error)

	// CallTool invokes the named tool with the given arguments.
	CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error)

	// Close releases the underlying transport.
	Close() error
}

// Connector establishes a new Session. It is called once per run.
type Connector interface {
	Connect(ctx context.Context) (Session, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context) (Session, error)

// Connect calls f(ctx).
func (f ConnectorFunc) Connect(ctx context.Context) (Session, error) {
	return f(ctx)
}
