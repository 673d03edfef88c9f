// Package tool validates parsed actions against the advertised tool set and
// dispatches them over a session.
//
// The reserved final_answer action never reaches the transport: Invoke
// reports it as a final Outcome. Every other action must name a tool the
// server advertised; anything else is an UnknownToolError.
//
//	inv := tool.NewInvoker(session, tools, tool.WithCallTimeout(30*time.Second))
//	out, err := inv.Invoke(ctx, act)
//	switch {
//	case errors.Is(err, tool.ErrUnknownTool):
//	    // tell the model which tool was wrong
//	case errors.Is(err, tool.ErrToolExecution):
//	    // tell the model the call failed
//	case out.Final:
//	    fmt.Println(out.Answer)
//	default:
//	    fmt.Println(out.Observation)
//	}
package tool

import (
	"context"
	"errors"
	"time"

	ai "github.com/spetersoncode/mcpagent"
	"github.com/spetersoncode/mcpagent/action"
)

// Outcome is the result of invoking one action.
type Outcome struct {
	// Final is true when the action was final_answer.
	Final bool
	// Answer holds the final answer text when Final is true.
	Answer string
	// Observation holds the tool's primary text when Final is false.
	Observation string
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithCallTimeout bounds each tool call. Zero means no limit.
func WithCallTimeout(d time.Duration) Option {
	return func(inv *Invoker) {
		inv.timeout = d
	}
}

// Invoker dispatches actions to a session, restricted to a fixed tool set.
// The tool set is captured at construction and never changes.
type Invoker struct {
	session ai.Session
	byName  map[string]ai.Tool
	timeout time.Duration
}

// NewInvoker creates an Invoker for the tools advertised by session.
func NewInvoker(session ai.Session, tools []ai.Tool, opts ...Option) *Invoker {
	inv := &Invoker{
		session: session,
		byName:  make(map[string]ai.Tool, len(tools)),
	}
	for _, t := range tools {
		inv.byName[t.Name] = t
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Has reports whether name is in the tool set.
func (inv *Invoker) Has(name string) bool {
	_, ok := inv.byName[name]
	return ok
}

// Invoke executes act. final_answer is resolved locally, even when the
// server advertises a tool of the same name.
func (inv *Invoker) Invoke(ctx context.Context, act action.Action) (Outcome, error) {
	if act.IsFinal() {
		if err := act.CheckArguments(); err != nil {
			return Outcome{}, &ExecutionError{Name: act.Name, Err: err}
		}
		return Outcome{Final: true, Answer: act.Answer()}, nil
	}

	if !inv.Has(act.Name) {
		return Outcome{}, &UnknownToolError{Name: act.Name}
	}
	if err := act.CheckArguments(); err != nil {
		return Outcome{}, &ExecutionError{Name: act.Name, Err: err}
	}

	callCtx := ctx
	if inv.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, inv.timeout)
		defer cancel()
	}

	args := act.Arguments
	if args == nil {
		args = map[string]any{}
	}

	result, err := inv.session.CallTool(callCtx, act.Name, args)
	if err != nil {
		return Outcome{}, &ExecutionError{Name: act.Name, Err: err}
	}

	text, err := PrimaryText(result)
	if err != nil {
		return Outcome{}, &ExecutionError{Name: act.Name, Err: err}
	}
	if result.IsError {
		if text == "" {
			text = "tool " + act.Name + " reported an error"
		}
		return Outcome{}, &ExecutionError{Name: act.Name, Err: errors.New(text)}
	}

	return Outcome{Observation: text}, nil
}
