package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	ai "github.com/spetersoncode/mcpagent"
	"github.com/spetersoncode/mcpagent/mcp"
)

// mockModel replays scripted replies. Once the script is exhausted it keeps
// returning the last reply.
type mockModel struct {
	mu        sync.Mutex
	replies   []mockReply
	callCount int
	seen      [][]ai.Message
}

type mockReply struct {
	text string
	err  error
	// block waits for ctx to be done before returning ctx.Err().
	block bool
}

func (m *mockModel) Generate(ctx context.Context, messages []ai.Message) (string, error) {
	m.mu.Lock()
	m.seen = append(m.seen, messages)
	idx := min(m.callCount, len(m.replies)-1)
	m.callCount++
	reply := m.replies[idx]
	m.mu.Unlock()

	if reply.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply.text, reply.err
}

func (m *mockModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

func replies(texts ...string) *mockModel {
	m := &mockModel{}
	for _, t := range texts {
		m.replies = append(m.replies, mockReply{text: t})
	}
	return m
}

// mockSession serves a fixed tool set and records its lifecycle.
type mockSession struct {
	mu      sync.Mutex
	tools   []ai.Tool
	listErr error
	results map[string]*ai.ToolResult
	callErr error
	calls   []string
	closed  int
}

func (s *mockSession) ListTools(context.Context) ([]ai.Tool, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.tools, nil
}

func (s *mockSession) CallTool(_ context.Context, name string, args map[string]any) (*ai.ToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	if s.callErr != nil {
		return nil, s.callErr
	}
	if r, ok := s.results[name]; ok {
		return r, nil
	}
	return ai.NewTextResult(fmt.Sprintf("%s(%v)", name, args)), nil
}

func (s *mockSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *mockSession) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func weatherSession() *mockSession {
	return &mockSession{
		tools: []ai.Tool{
			{Name: "fetch_weather", Description: "Fetch the current weather for a city"},
			{Name: "finish_task", Description: "Mark the task as complete"},
		},
		results: map[string]*ai.ToolResult{
			"fetch_weather": ai.NewTextResult("New York: ☀️ +72°F"),
			"finish_task":   ai.NewPartsResult(ai.NewTextPart("Task completed successfully.")),
		},
	}
}

func connectTo(s *mockSession) ai.Connector {
	return ai.ConnectorFunc(func(context.Context) (ai.Session, error) {
		return s, nil
	})
}

const (
	fetchNYC   = `{"name": "fetch_weather", "arguments": {"city": "NYC"}}`
	finalSunny = `{"name": "final_answer", "arguments": {"answer": "It is sunny in NYC."}}`
)

func roles(msgs []ai.Message) []ai.Role {
	out := make([]ai.Role, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role
	}
	return out
}

func TestAgent_Run_FinalAnswer(t *testing.T) {
	session := weatherSession()
	model := replies(fetchNYC, finalSunny)
	a := New(model, connectTo(session))

	result, err := a.Run(context.Background(), "What's the weather in NYC?")

	require.NoError(t, err)
	assert.Equal(t, "It is sunny in NYC.", result.Answer)
	assert.Equal(t, 2, result.Steps)
	assert.Equal(t, TerminationFinalAnswer, result.Termination)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, StateDone, a.State())
	assert.Equal(t, []string{"fetch_weather"}, session.calls)
	assert.Equal(t, 1, session.closeCount())

	msgs := a.Transcript()
	require.Len(t, msgs, 6)
	assert.Equal(t, []ai.Role{
		ai.RoleSystem, ai.RoleUser, ai.RoleAssistant, ai.RoleUser, ai.RoleAssistant, ai.RoleUser,
	}, roles(msgs))
	assert.Contains(t, msgs[0].Content, "- fetch_weather: Fetch the current weather for a city")
	assert.Equal(t, "What's the weather in NYC?", msgs[1].Content)
	assert.Equal(t, fetchNYC, msgs[2].Content)
	assert.Equal(t, "New York: ☀️ +72°F", msgs[3].Content)
	assert.Equal(t, "Final answer: It is sunny in NYC.", msgs[5].Content)
	assert.Equal(t, msgs, result.Messages)
}

func TestAgent_Run_ModelSeesSnapshot(t *testing.T) {
	model := replies(fetchNYC, finalSunny)
	a := New(model, connectTo(weatherSession()))

	_, err := a.Run(context.Background(), "task")
	require.NoError(t, err)

	require.Len(t, model.seen, 2)
	assert.Len(t, model.seen[0], 2)
	assert.Len(t, model.seen[1], 4)
	assert.Equal(t, ai.RoleSystem, model.seen[1][0].Role)
}

func TestAgent_Run_RecoverableErrors(t *testing.T) {
	tests := []struct {
		name        string
		model       *mockModel
		session     func() *mockSession
		observation string
		transcript  []ai.Role
	}{
		{
			name:        "malformed output",
			model:       replies("I am not sure what to do.", finalSunny),
			session:     weatherSession,
			observation: "Error: Failed to parse tool call: no JSON object found in text\nPlease try a different approach.",
			transcript:  []ai.Role{ai.RoleSystem, ai.RoleUser, ai.RoleUser, ai.RoleAssistant, ai.RoleUser},
		},
		{
			name:        "unknown tool",
			model:       replies(`{"name": "launch_rockets", "arguments": {}}`, finalSunny),
			session:     weatherSession,
			observation: "Error: Tool not found: launch_rockets\nPlease try a different approach.",
			transcript:  []ai.Role{ai.RoleSystem, ai.RoleUser, ai.RoleAssistant, ai.RoleUser, ai.RoleAssistant, ai.RoleUser},
		},
		{
			name:        "non-object arguments",
			model:       replies(`{"name": "fetch_weather", "arguments": ["NYC"]}`, finalSunny),
			session:     weatherSession,
			observation: "Error: arguments must be an object, got array\nPlease try a different approach.",
			transcript:  []ai.Role{ai.RoleSystem, ai.RoleUser, ai.RoleAssistant, ai.RoleUser, ai.RoleAssistant, ai.RoleUser},
		},
		{
			name:        "non-object final answer arguments",
			model:       replies(`{"name": "final_answer", "arguments": "sunny"}`, finalSunny),
			session:     weatherSession,
			observation: "Error: arguments must be an object, got string\nPlease try a different approach.",
			transcript:  []ai.Role{ai.RoleSystem, ai.RoleUser, ai.RoleAssistant, ai.RoleUser, ai.RoleAssistant, ai.RoleUser},
		},
		{
			name:  "tool reports error",
			model: replies(fetchNYC, finalSunny),
			session: func() *mockSession {
				s := weatherSession()
				s.results["fetch_weather"] = &ai.ToolResult{Text: "city not found", IsError: true}
				return s
			},
			observation: "Error: city not found\nPlease try a different approach.",
			transcript:  []ai.Role{ai.RoleSystem, ai.RoleUser, ai.RoleAssistant, ai.RoleUser, ai.RoleAssistant, ai.RoleUser},
		},
		{
			name:  "transport error",
			model: replies(fetchNYC, finalSunny),
			session: func() *mockSession {
				s := weatherSession()
				s.callErr = errors.New("broken pipe")
				return s
			},
			observation: "Error: broken pipe\nPlease try a different approach.",
			transcript:  []ai.Role{ai.RoleSystem, ai.RoleUser, ai.RoleAssistant, ai.RoleUser, ai.RoleAssistant, ai.RoleUser},
		},
		{
			name: "model error",
			model: &mockModel{replies: []mockReply{
				{err: errors.New("503 service unavailable")},
				{text: finalSunny},
			}},
			session:     weatherSession,
			observation: "Error: model invocation failed: 503 service unavailable\nPlease try a different approach.",
			transcript:  []ai.Role{ai.RoleSystem, ai.RoleUser, ai.RoleUser, ai.RoleAssistant, ai.RoleUser},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := tt.session()
			a := New(tt.model, connectTo(session))

			result, err := a.Run(context.Background(), "task")

			require.NoError(t, err)
			assert.Equal(t, "It is sunny in NYC.", result.Answer)
			assert.Equal(t, 2, result.Steps)

			msgs := a.Transcript()
			assert.Equal(t, tt.transcript, roles(msgs))
			var found bool
			for _, m := range msgs {
				if m.Content == tt.observation {
					found = true
				}
			}
			assert.True(t, found, "observation %q not in transcript", tt.observation)
			assert.Equal(t, 1, session.closeCount())
		})
	}
}

func TestAgent_Run_ModelTimeout(t *testing.T) {
	model := &mockModel{replies: []mockReply{{block: true}, {text: finalSunny}}}
	a := New(model, connectTo(weatherSession()), WithModelTimeout(10*time.Millisecond))

	result, err := a.Run(context.Background(), "task")

	require.NoError(t, err)
	assert.Equal(t, TerminationFinalAnswer, result.Termination)
	assert.Contains(t, a.Transcript()[2].Content, context.DeadlineExceeded.Error())
}

func TestAgent_Run_Exhausted(t *testing.T) {
	session := weatherSession()
	model := replies(fetchNYC)
	a := New(model, connectTo(session), WithMaxSteps(3))

	result, err := a.Run(context.Background(), "task")

	require.NoError(t, err)
	assert.Equal(t, NoFinalAnswer, result.Answer)
	assert.Equal(t, "No final answer provided within the maximum number of steps.", result.Answer)
	assert.Equal(t, 3, result.Steps)
	assert.Equal(t, TerminationMaxSteps, result.Termination)
	assert.Equal(t, StateExhausted, a.State())
	assert.Equal(t, 3, model.calls())
	assert.Len(t, session.calls, 3)
	assert.Len(t, a.Transcript(), 2+3*2)
	assert.Equal(t, 1, session.closeCount())
}

func TestAgent_Run_ZeroSteps(t *testing.T) {
	session := weatherSession()
	model := replies(finalSunny)
	a := New(model, connectTo(session))

	result, err := a.Run(context.Background(), "task", WithRunMaxSteps(0))

	require.NoError(t, err)
	assert.Equal(t, NoFinalAnswer, result.Answer)
	assert.Equal(t, 0, result.Steps)
	assert.Equal(t, 0, model.calls())
	assert.Len(t, a.Transcript(), 2)
	assert.Equal(t, 1, session.closeCount())
}

func TestAgent_Run_SessionInitialization(t *testing.T) {
	t.Run("connect failure", func(t *testing.T) {
		model := replies(finalSunny)
		connector := ai.ConnectorFunc(func(context.Context) (ai.Session, error) {
			return nil, errors.New("executable not found")
		})
		a := New(model, connector)

		result, err := a.Run(context.Background(), "task")

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSessionInitialization))
		var initErr *SessionInitializationError
		require.ErrorAs(t, err, &initErr)
		assert.Equal(t, "connect", initErr.Op)
		assert.Contains(t, err.Error(), "executable not found")
		assert.Equal(t, TerminationError, result.Termination)
		assert.Equal(t, 0, result.Steps)
		assert.Equal(t, 0, model.calls())
		assert.Equal(t, StateFailed, a.State())
	})

	t.Run("list tools failure closes session", func(t *testing.T) {
		session := weatherSession()
		session.listErr = errors.New("server crashed")
		model := replies(finalSunny)
		a := New(model, connectTo(session))

		_, err := a.Run(context.Background(), "task")

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSessionInitialization))
		assert.Equal(t, 0, model.calls())
		assert.Equal(t, 1, session.closeCount())
		assert.Equal(t, StateFailed, a.State())
	})
}

func TestAgent_Run_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := weatherSession()
	model := &mockModel{replies: []mockReply{{block: true}}}
	a := New(model, connectTo(session), WithObserver(ObserverFunc(func(_ context.Context, ev Event) {
		if ev.Type == EventStepStart {
			cancel()
		}
	})))

	result, err := a.Run(ctx, "task")

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, TerminationError, result.Termination)
	assert.Equal(t, 1, result.Steps)
	assert.Equal(t, StateFailed, a.State())
	assert.Equal(t, 1, session.closeCount())
}

func TestAgent_Run_Reset(t *testing.T) {
	t.Run("default reset clears history", func(t *testing.T) {
		a := New(replies(finalSunny), connectTo(weatherSession()))

		_, err := a.Run(context.Background(), "first")
		require.NoError(t, err)
		_, err = a.Run(context.Background(), "second")
		require.NoError(t, err)

		msgs := a.Transcript()
		require.Len(t, msgs, 4)
		assert.Equal(t, "second", msgs[1].Content)
	})

	t.Run("without reset keeps history and one system message", func(t *testing.T) {
		a := New(replies(finalSunny), connectTo(weatherSession()))

		_, err := a.Run(context.Background(), "first")
		require.NoError(t, err)
		_, err = a.Run(context.Background(), "second", WithReset(false))
		require.NoError(t, err)

		msgs := a.Transcript()
		require.Len(t, msgs, 7)
		assert.Equal(t, ai.RoleSystem, msgs[0].Role)
		assert.Equal(t, "first", msgs[1].Content)
		assert.Equal(t, "second", msgs[4].Content)
		systems := 0
		for _, m := range msgs {
			if m.Role == ai.RoleSystem {
				systems++
			}
		}
		assert.Equal(t, 1, systems)
	})
}

func TestAgent_Run_History(t *testing.T) {
	history := []ai.Message{
		{Role: ai.RoleSystem, Content: "old rules"},
		{Role: ai.RoleUser, Content: "Weather in Paris?"},
		{Role: ai.RoleAssistant, Content: `{"name": "final_answer", "arguments": {"answer": "Mild."}}`},
		{Role: ai.RoleUser, Content: "Final answer: Mild."},
	}
	model := replies(finalSunny)
	a := New(model, connectTo(weatherSession()), WithHistory(history))
	assert.Len(t, a.Transcript(), 4)

	_, err := a.Run(context.Background(), "And NYC?", WithReset(false))
	require.NoError(t, err)

	msgs := a.Transcript()
	require.Len(t, msgs, 7)
	assert.Equal(t, ai.RoleSystem, msgs[0].Role)
	assert.NotEqual(t, "old rules", msgs[0].Content)
	assert.Equal(t, "Weather in Paris?", msgs[1].Content)
	assert.Equal(t, "And NYC?", msgs[4].Content)
	require.Len(t, model.seen, 1)
	assert.Len(t, model.seen[0], 5)

	history[1].Content = "changed"
	assert.Equal(t, "Weather in Paris?", a.Transcript()[1].Content)
}

func TestAgent_Run_StepInfo(t *testing.T) {
	var mu sync.Mutex
	var infos []ai.StepInfo
	model := ai.ModelFunc(func(ctx context.Context, msgs []ai.Message) (string, error) {
		info, ok := ai.StepInfoFrom(ctx)
		require.True(t, ok)
		mu.Lock()
		defer mu.Unlock()
		infos = append(infos, info)
		if len(infos) == 1 {
			return fetchNYC, nil
		}
		return finalSunny, nil
	})
	a := New(model, connectTo(weatherSession()))

	result, err := a.Run(context.Background(), "task")
	require.NoError(t, err)

	assert.Equal(t, []ai.StepInfo{
		{RunID: result.RunID, Step: 1},
		{RunID: result.RunID, Step: 2},
	}, infos)
}

func TestAgent_Run_CallingToolLog(t *testing.T) {
	tests := []struct {
		name   string
		output string
		logged bool
	}{
		{name: "advertised tool", output: fetchNYC, logged: true},
		{name: "unknown tool", output: `{"name": "launch_rockets", "arguments": {}}`, logged: false},
		{name: "final answer", output: finalSunny, logged: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			a := New(replies(tt.output, finalSunny), connectTo(weatherSession()), WithLogger(logger))

			_, err := a.Run(context.Background(), "task")
			require.NoError(t, err)

			assert.Equal(t, tt.logged, strings.Contains(buf.String(), `msg="calling tool"`))
		})
	}
}

func TestAgent_Run_SystemPrompt(t *testing.T) {
	a := New(replies(finalSunny), connectTo(weatherSession()), WithSystemPrompt("You are a weather bot."))

	_, err := a.Run(context.Background(), "task")
	require.NoError(t, err)

	system := a.Transcript()[0].Content
	assert.True(t, strings.HasPrefix(system, "You are a weather bot."))
	assert.Contains(t, system, "- final_answer(answer: str)")
}

func TestAgent_Run_Events(t *testing.T) {
	var mu sync.Mutex
	var types []EventType
	var runIDs []string
	obs := ObserverFunc(func(_ context.Context, ev Event) {
		mu.Lock()
		defer mu.Unlock()
		types = append(types, ev.Type)
		runIDs = append(runIDs, ev.RunID)
		assert.False(t, ev.Timestamp.IsZero())
	})

	a := New(replies("oops", fetchNYC, finalSunny), connectTo(weatherSession()), WithObserver(obs))
	result, err := a.Run(context.Background(), "task")
	require.NoError(t, err)

	assert.Equal(t, []EventType{
		EventRunStart, EventToolsListed,
		EventStepStart, EventModelOutput, EventStepError,
		EventStepStart, EventModelOutput, EventAction, EventObservation,
		EventStepStart, EventModelOutput, EventAction, EventFinalAnswer,
		EventRunEnd,
	}, types)
	for _, id := range runIDs {
		assert.Equal(t, result.RunID, id)
	}
}

func TestMultiObserver(t *testing.T) {
	var a, b int
	obs := MultiObserver(
		ObserverFunc(func(context.Context, Event) { a++ }),
		nil,
		ObserverFunc(func(context.Context, Event) { b++ }),
	)

	obs.OnEvent(context.Background(), Event{Type: EventRunStart})

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

func TestAgent_Run_Tracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	a := New(replies(fetchNYC, finalSunny), connectTo(weatherSession()), WithTracerProvider(tp))
	_, err := a.Run(context.Background(), "task")
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "agent.step", spans[0].Name())
	assert.Equal(t, "agent.step", spans[1].Name())
	assert.Equal(t, "agent.run", spans[2].Name())
	assert.Equal(t, spans[2].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestAgent_Run_Serialized(t *testing.T) {
	a := New(replies(finalSunny), connectTo(weatherSession()))

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := a.Run(context.Background(), "task")
			assert.NoError(t, err)
			assert.Equal(t, "It is sunny in NYC.", result.Answer)
		}()
	}
	wg.Wait()

	assert.Len(t, a.Transcript(), 4)
}

func TestAgent_Run_InProcessServer(t *testing.T) {
	server := mcp.NewServer([]mcp.ServerTool{
		{
			Tool: ai.Tool{
				Name:        "fetch_weather",
				Description: "Fetch the current weather for a city",
				Parameters:  `{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`,
			},
			Handler: func(_ context.Context, args map[string]any) (*ai.ToolResult, error) {
				return ai.NewTextResult(fmt.Sprintf("%v: ☀️ +72°F", args["city"])), nil
			},
		},
	})
	model := replies(fetchNYC, finalSunny)
	a := New(model, mcp.NewInProcessConnector(server), WithMaxSteps(5))

	result, err := a.Run(context.Background(), "What's the weather in NYC?")

	require.NoError(t, err)
	assert.Equal(t, "It is sunny in NYC.", result.Answer)
	msgs := a.Transcript()
	require.Len(t, msgs, 6)
	assert.Equal(t, "NYC: ☀️ +72°F", msgs[3].Content)
	assert.Contains(t, msgs[0].Content, `{"name":"fetch_weather","arguments":{"city":"<city>"}}`)
}

func TestApplyOptions(t *testing.T) {
	o := ApplyOptions()
	assert.Equal(t, DefaultMaxSteps, o.MaxSteps)
	assert.NotNil(t, o.Logger)
	assert.NotNil(t, o.TracerProvider)
	assert.NotEmpty(t, o.SystemPrompt)

	o = ApplyOptions(WithMaxSteps(-1))
	assert.Equal(t, 0, o.MaxSteps)
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, StateIdle.Terminal())
	assert.False(t, StateStepping.Terminal())
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateExhausted.Terminal())
	assert.True(t, StateFailed.Terminal())
}
