package mcpagent

import "context"

// Model generates the next assistant reply for a conversation.
type Model interface {
	// Generate sends the ordered conversation and returns the generated text.
	// Any failure of the underlying transport is reported as a single error.
	Generate(ctx context.Context, messages []Message) (string, error)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, messages []Message) (string, error)

// Generate calls f(ctx, messages).
func (f ModelFunc) Generate(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}
