package agui

import (
	"errors"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
)

// RunAgentInput represents the AG-UI protocol request for running an agent.
// Frontend tools, context and state are accepted but ignored: the agent's
// tools come from its MCP server.
type RunAgentInput struct {
	ThreadID       string           `json:"thread_id"`
	RunID          string           `json:"run_id"`
	Messages       []events.Message `json:"messages"`
	Tools          []any            `json:"tools,omitempty"`
	Context        []any            `json:"context,omitempty"`
	State          any              `json:"state,omitempty"`
	ForwardedProps any              `json:"forwarded_props,omitempty"`
}

// PreparedInput contains validated input ready for an agent run.
type PreparedInput struct {
	ThreadID string
	RunID    string

	// Task is the content of the last user message.
	Task string
}

var (
	// ErrNoMessages is returned when the input contains no messages.
	ErrNoMessages = errors.New("no messages provided")

	// ErrNoTask is returned when no user message carries content.
	ErrNoTask = errors.New("no user message provided")
)

// Prepare validates the input and extracts the task.
func (r *RunAgentInput) Prepare() (*PreparedInput, error) {
	if len(r.Messages) == 0 {
		return nil, ErrNoMessages
	}
	task, ok := LastUserMessage(ToMessages(r.Messages))
	if !ok {
		return nil, ErrNoTask
	}
	return &PreparedInput{
		ThreadID: r.ThreadID,
		RunID:    r.RunID,
		Task:     task,
	}, nil
}
