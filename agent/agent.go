package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ai "github.com/spetersoncode/mcpagent"
	"github.com/spetersoncode/mcpagent/action"
	"github.com/spetersoncode/mcpagent/memory"
	"github.com/spetersoncode/mcpagent/prompt"
	"github.com/spetersoncode/mcpagent/tool"
)

const tracerName = "github.com/spetersoncode/mcpagent/agent"

// Agent drives a model through a bounded tool-calling loop.
//
// An Agent owns its conversation memory, so runs are serialized: a second
// Run blocks until the first returns. Each run opens its own session.
type Agent struct {
	model     ai.Model
	connector ai.Connector
	options   *Options
	tracer    trace.Tracer
	memory    *memory.Memory

	runMu sync.Mutex

	stateMu sync.RWMutex
	state   State
}

// New creates an Agent that generates with model and calls tools through
// sessions opened by connector.
func New(model ai.Model, connector ai.Connector, opts ...Option) *Agent {
	options := ApplyOptions(opts...)
	return &Agent{
		model:     model,
		connector: connector,
		options:   options,
		tracer:    options.TracerProvider.Tracer(tracerName),
		memory:    memory.NewFrom(options.History),
		state:     StateIdle,
	}
}

// State returns the agent's current lifecycle state.
func (a *Agent) State() State {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.state
}

func (a *Agent) setState(s State) {
	a.stateMu.Lock()
	a.state = s
	a.stateMu.Unlock()
}

// Transcript returns a copy of the conversation, including any in-progress run.
func (a *Agent) Transcript() []ai.Message {
	return a.memory.Snapshot()
}

// run holds the per-run state threaded through the steps.
type run struct {
	id       string
	maxSteps int
	log      *slog.Logger
	invoker  *tool.Invoker
}

// Run executes task and returns the result.
//
// Recoverable step failures (malformed output, unknown tools, tool and model
// errors) are fed back to the model and never returned. Run returns an error
// only when the session cannot be initialized or ctx is done; the session is
// closed on every path.
func (a *Agent) Run(ctx context.Context, task string, opts ...RunOption) (*Result, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	runOpts := applyRunOptions(opts...)
	r := &run{
		id:       uuid.NewString(),
		maxSteps: a.options.MaxSteps,
	}
	if runOpts.MaxSteps != nil {
		r.maxSteps = max(*runOpts.MaxSteps, 0)
	}
	r.log = a.options.Logger.With("run_id", r.id)

	ctx, span := a.tracer.Start(ctx, "agent.run", trace.WithAttributes(
		attribute.String("agent.run_id", r.id),
		attribute.Int("agent.max_steps", r.maxSteps),
	))
	defer span.End()

	result := &Result{RunID: r.id}

	a.setState(StateInitializing)
	a.emit(ctx, Event{Type: EventRunStart, RunID: r.id})

	session, err := a.initialize(ctx, r, task, runOpts.Reset)
	if err != nil {
		return a.fail(ctx, r, span, result, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			r.log.Warn("failed to close session", "error", err)
		}
	}()

	a.setState(StateStepping)

	step := 0
	done := false
	for step < r.maxSteps && !done {
		step++
		result.Steps = step

		answer, final, err := a.step(ctx, r, step)
		if err != nil {
			return a.fail(ctx, r, span, result, err)
		}
		if final {
			done = true
			result.Answer = answer
		}
	}

	if done {
		result.Termination = TerminationFinalAnswer
		a.setState(StateDone)
		r.log.Info("run completed", "steps", result.Steps)
	} else {
		result.Termination = TerminationMaxSteps
		result.Answer = NoFinalAnswer
		a.setState(StateExhausted)
		r.log.Warn("reached maximum steps without final answer", "max_steps", r.maxSteps)
	}

	result.Messages = a.memory.Snapshot()
	span.SetAttributes(
		attribute.Int("agent.steps", result.Steps),
		attribute.String("agent.termination", string(result.Termination)),
	)
	span.SetStatus(codes.Ok, "")

	a.emit(ctx, Event{
		Type:        EventRunEnd,
		RunID:       r.id,
		Step:        result.Steps,
		Answer:      result.Answer,
		Termination: result.Termination,
	})
	return result, nil
}

// initialize opens the session, lists its tools and seeds memory with the
// composed system prompt and the task.
func (a *Agent) initialize(ctx context.Context, r *run, task string, reset bool) (ai.Session, error) {
	r.log.Info("initializing session")

	session, err := a.connector.Connect(ctx)
	if err != nil {
		return nil, &SessionInitializationError{Op: "connect", Err: err}
	}

	tools, err := session.ListTools(ctx)
	if err != nil {
		if cerr := session.Close(); cerr != nil {
			r.log.Warn("failed to close session", "error", cerr)
		}
		return nil, &SessionInitializationError{Op: "list tools", Err: err}
	}

	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	r.log.Info("available tools", "tools", names)

	system := prompt.Compose(a.options.SystemPrompt, tools)
	if reset {
		a.memory.Reset(system)
	} else {
		a.memory.Append(ai.RoleSystem, system)
	}
	a.memory.Append(ai.RoleUser, task)

	r.invoker = tool.NewInvoker(session, tools, tool.WithCallTimeout(a.options.ToolTimeout))
	a.emit(ctx, Event{Type: EventToolsListed, RunID: r.id, Tools: tools})
	return session, nil
}

// step runs one model call and at most one tool call. It returns an error
// only when ctx is done.
func (a *Agent) step(ctx context.Context, r *run, step int) (answer string, final bool, err error) {
	ctx, span := a.tracer.Start(ctx, "agent.step", trace.WithAttributes(
		attribute.Int("agent.step", step),
	))
	defer span.End()
	ctx = ai.WithStepInfo(ctx, ai.StepInfo{RunID: r.id, Step: step})

	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	r.log.Info("step started", "step", step, "max_steps", r.maxSteps)
	a.emit(ctx, Event{Type: EventStepStart, RunID: r.id, Step: step})

	output, err := a.generate(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		a.recordStepError(ctx, r, span, step, &ModelInvocationError{Step: step, Err: err})
		return "", false, nil
	}
	r.log.Debug("model output", "step", step, "output", output)
	a.emit(ctx, Event{Type: EventModelOutput, RunID: r.id, Step: step, Output: output})

	act, err := action.Parse(output)
	if err != nil {
		a.recordStepError(ctx, r, span, step, err)
		return "", false, nil
	}
	a.memory.Append(ai.RoleAssistant, output)
	span.SetAttributes(attribute.String("agent.action", act.Name))
	a.emit(ctx, Event{Type: EventAction, RunID: r.id, Step: step, Action: &act})

	if !act.IsFinal() && r.invoker.Has(act.Name) {
		r.log.Info("calling tool", "step", step, "tool", act.Name)
	}
	outcome, err := r.invoker.Invoke(ctx, act)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		a.recordStepError(ctx, r, span, step, err)
		return "", false, nil
	}

	if outcome.Final {
		a.memory.Append(ai.RoleUser, "Final answer: "+outcome.Answer)
		a.emit(ctx, Event{Type: EventFinalAnswer, RunID: r.id, Step: step, Answer: outcome.Answer})
		return outcome.Answer, true, nil
	}

	a.memory.Append(ai.RoleUser, outcome.Observation)
	r.log.Debug("observation", "step", step, "observation", outcome.Observation)
	a.emit(ctx, Event{Type: EventObservation, RunID: r.id, Step: step, Observation: outcome.Observation})
	return "", false, nil
}

func (a *Agent) generate(ctx context.Context) (string, error) {
	if a.options.ModelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.options.ModelTimeout)
		defer cancel()
	}
	return a.model.Generate(ctx, a.memory.Snapshot())
}

// ErrorObservation formats a step failure as the text fed back to the model.
func ErrorObservation(err error) string {
	return fmt.Sprintf("Error: %s\nPlease try a different approach.", err.Error())
}

// recordStepError records a recoverable step failure as an observation.
func (a *Agent) recordStepError(ctx context.Context, r *run, span trace.Span, step int, err error) {
	r.log.Warn("step failed", "step", step, "error", err)
	span.RecordError(err)

	observation := ErrorObservation(err)
	a.memory.Append(ai.RoleUser, observation)
	a.emit(ctx, Event{Type: EventStepError, RunID: r.id, Step: step, Observation: observation, Error: err})
}

// fail ends a run that cannot continue.
func (a *Agent) fail(ctx context.Context, r *run, span trace.Span, result *Result, err error) (*Result, error) {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		err = fmt.Errorf("agent: run aborted at step %d: %w", result.Steps, err)
	}

	a.setState(StateFailed)
	r.log.Error("run failed", "steps", result.Steps, "error", err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	result.Termination = TerminationError
	result.Messages = a.memory.Snapshot()

	// ctx may already be done; observers still need the terminal event.
	a.emit(context.WithoutCancel(ctx), Event{
		Type:        EventRunEnd,
		RunID:       r.id,
		Step:        result.Steps,
		Termination: result.Termination,
		Error:       err,
	})
	return result, err
}

func (a *Agent) emit(ctx context.Context, ev Event) {
	if a.options.Observer == nil {
		return
	}
	ev.Timestamp = time.Now()
	a.options.Observer.OnEvent(ctx, ev)
}
