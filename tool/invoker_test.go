package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/mcpagent"
	"github.com/spetersoncode/mcpagent/action"
)

type call struct {
	name string
	args map[string]any
}

// mockSession answers CallTool from a handler and records every call.
type mockSession struct {
	tools   []ai.Tool
	handler func(ctx context.Context, name string, args map[string]any) (*ai.ToolResult, error)
	calls   []call
}

func (m *mockSession) ListTools(context.Context) ([]ai.Tool, error) {
	return m.tools, nil
}

func (m *mockSession) CallTool(ctx context.Context, name string, args map[string]any) (*ai.ToolResult, error) {
	m.calls = append(m.calls, call{name: name, args: args})
	return m.handler(ctx, name, args)
}

func (m *mockSession) Close() error { return nil }

var weatherTools = []ai.Tool{
	{Name: "fetch_weather", Description: "Fetch the weather"},
	{Name: "finish_task", Description: "Finish"},
}

func TestInvoker_FinalAnswer(t *testing.T) {
	session := &mockSession{tools: weatherTools}
	inv := NewInvoker(session, weatherTools)

	out, err := inv.Invoke(context.Background(), action.Action{
		Name:      action.FinalAnswer,
		Arguments: map[string]any{"answer": "It is sunny."},
	})

	require.NoError(t, err)
	assert.True(t, out.Final)
	assert.Equal(t, "It is sunny.", out.Answer)
	assert.Empty(t, session.calls)
}

func TestInvoker_FinalAnswerShadowsServerTool(t *testing.T) {
	tools := []ai.Tool{{Name: action.FinalAnswer}}
	session := &mockSession{tools: tools}
	inv := NewInvoker(session, tools)

	out, err := inv.Invoke(context.Background(), action.Action{Name: action.FinalAnswer})

	require.NoError(t, err)
	assert.True(t, out.Final)
	assert.Equal(t, "", out.Answer)
	assert.Empty(t, session.calls)
}

func TestInvoker_UnknownTool(t *testing.T) {
	session := &mockSession{tools: weatherTools}
	inv := NewInvoker(session, weatherTools)

	_, err := inv.Invoke(context.Background(), action.Action{Name: "launch_rockets"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTool))
	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "launch_rockets", unknown.Name)
	assert.Equal(t, "Tool not found: launch_rockets", err.Error())
	assert.Empty(t, session.calls)
}

func TestInvoker_Success(t *testing.T) {
	t.Run("bare text result", func(t *testing.T) {
		session := &mockSession{
			tools: weatherTools,
			handler: func(_ context.Context, _ string, args map[string]any) (*ai.ToolResult, error) {
				return ai.NewTextResult("Sunny in " + args["city"].(string)), nil
			},
		}
		inv := NewInvoker(session, weatherTools)

		out, err := inv.Invoke(context.Background(), action.Action{
			Name:      "fetch_weather",
			Arguments: map[string]any{"city": "NYC"},
		})

		require.NoError(t, err)
		assert.False(t, out.Final)
		assert.Equal(t, "Sunny in NYC", out.Observation)
		require.Len(t, session.calls, 1)
		assert.Equal(t, "fetch_weather", session.calls[0].name)
		assert.Equal(t, map[string]any{"city": "NYC"}, session.calls[0].args)
	})

	t.Run("first text part of structured result", func(t *testing.T) {
		session := &mockSession{
			tools: weatherTools,
			handler: func(context.Context, string, map[string]any) (*ai.ToolResult, error) {
				return ai.NewPartsResult(
					ai.ContentPart{Type: ai.ContentPartTypeImage, Data: "aGk=", MimeType: "image/png"},
					ai.NewTextPart("Task completed successfully."),
					ai.NewTextPart("ignored"),
				), nil
			},
		}
		inv := NewInvoker(session, weatherTools)

		out, err := inv.Invoke(context.Background(), action.Action{Name: "finish_task"})

		require.NoError(t, err)
		assert.Equal(t, "Task completed successfully.", out.Observation)
		assert.NotNil(t, session.calls[0].args)
	})
}

func TestInvoker_ExecutionErrors(t *testing.T) {
	tests := []struct {
		name     string
		result   *ai.ToolResult
		err      error
		expected string
	}{
		{name: "transport error", err: errors.New("connection reset"), expected: "connection reset"},
		{name: "nil result", expected: "tool returned no result"},
		{name: "parts without text", result: ai.NewPartsResult(), expected: "tool result has no text content"},
		{name: "error result", result: &ai.ToolResult{Text: "city not found", IsError: true}, expected: "city not found"},
		{
			name:     "structured error result",
			result:   &ai.ToolResult{Parts: []ai.ContentPart{ai.NewTextPart("rate limited")}, IsError: true},
			expected: "rate limited",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &mockSession{
				tools: weatherTools,
				handler: func(context.Context, string, map[string]any) (*ai.ToolResult, error) {
					return tt.result, tt.err
				},
			}
			inv := NewInvoker(session, weatherTools)

			_, err := inv.Invoke(context.Background(), action.Action{Name: "fetch_weather"})

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrToolExecution))
			var execErr *ExecutionError
			require.ErrorAs(t, err, &execErr)
			assert.Equal(t, "fetch_weather", execErr.Name)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestInvoker_CallTimeout(t *testing.T) {
	session := &mockSession{
		tools: weatherTools,
		handler: func(ctx context.Context, _ string, _ map[string]any) (*ai.ToolResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	inv := NewInvoker(session, weatherTools, WithCallTimeout(10*time.Millisecond))

	_, err := inv.Invoke(context.Background(), action.Action{Name: "fetch_weather"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolExecution))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestInvoker_Has(t *testing.T) {
	tools := append([]ai.Tool(nil), weatherTools...)
	inv := NewInvoker(&mockSession{}, tools)
	tools[0].Name = "changed"

	assert.True(t, inv.Has("fetch_weather"))
	assert.False(t, inv.Has("changed"))
	assert.False(t, inv.Has(action.FinalAnswer))
}

func TestInvoker_NonObjectArguments(t *testing.T) {
	parse := func(t *testing.T, text string) action.Action {
		t.Helper()
		act, err := action.Parse(text)
		require.NoError(t, err)
		return act
	}

	t.Run("tool call is rejected before dispatch", func(t *testing.T) {
		session := &mockSession{tools: weatherTools}
		inv := NewInvoker(session, weatherTools)

		_, err := inv.Invoke(context.Background(), parse(t, `{"name": "fetch_weather", "arguments": ["NYC"]}`))

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrToolExecution))
		assert.Equal(t, "arguments must be an object, got array", err.Error())
		assert.Empty(t, session.calls)
	})

	t.Run("final answer is not accepted", func(t *testing.T) {
		inv := NewInvoker(&mockSession{}, weatherTools)

		out, err := inv.Invoke(context.Background(), parse(t, `{"name": "final_answer", "arguments": "It is sunny."}`))

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrToolExecution))
		assert.False(t, out.Final)
		assert.Equal(t, "arguments must be an object, got string", err.Error())
	})

	t.Run("unknown tool wins over bad arguments", func(t *testing.T) {
		inv := NewInvoker(&mockSession{}, weatherTools)

		_, err := inv.Invoke(context.Background(), parse(t, `{"name": "launch_rockets", "arguments": 1}`))

		assert.True(t, errors.Is(err, ErrUnknownTool))
	})
}

func TestPrimaryText(t *testing.T) {
	text, err := PrimaryText(ai.NewTextResult(""))
	require.NoError(t, err)
	assert.Equal(t, "", text)

	_, err = PrimaryText(nil)
	assert.Error(t, err)
}
