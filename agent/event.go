package agent

import (
	"context"
	"time"

	ai "github.com/spetersoncode/mcpagent"
	"github.com/spetersoncode/mcpagent/action"
)

// EventType identifies the kind of event occurring during a run.
type EventType string

const (
	// EventRunStart fires before the session is established.
	EventRunStart EventType = "run_start"

	// EventToolsListed fires once the server's tools are known.
	EventToolsListed EventType = "tools_listed"

	// EventStepStart fires at the beginning of each step.
	EventStepStart EventType = "step_start"

	// EventModelOutput fires with the raw model reply.
	EventModelOutput EventType = "model_output"

	// EventAction fires after a reply is parsed into an action.
	EventAction EventType = "action"

	// EventObservation fires with a successful tool result.
	EventObservation EventType = "observation"

	// EventStepError fires when a step fails recoverably.
	EventStepError EventType = "step_error"

	// EventFinalAnswer fires when the model emits final_answer.
	EventFinalAnswer EventType = "final_answer"

	// EventRunEnd fires once per run, whatever the outcome.
	EventRunEnd EventType = "run_end"
)

// Event represents an observable occurrence during a run.
type Event struct {
	Type  EventType
	RunID string

	// Step is the current step number (1-indexed); 0 outside steps.
	Step int

	// Output is the raw model reply for EventModelOutput.
	Output string

	// Action is the parsed action for EventAction.
	Action *action.Action

	// Observation is the text fed back to the model.
	Observation string

	// Answer is set for EventFinalAnswer and EventRunEnd.
	Answer string

	// Tools is set for EventToolsListed.
	Tools []ai.Tool

	// Termination is set for EventRunEnd.
	Termination Termination

	// Error is set for EventStepError, and for EventRunEnd when the run failed.
	Error error

	Timestamp time.Time
}

// Observer receives run events synchronously, in order.
// Implementations must not block for long; the loop waits for them.
type Observer interface {
	OnEvent(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, ev Event)

// OnEvent calls f(ctx, ev).
func (f ObserverFunc) OnEvent(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// MultiObserver fans events out to observers in order. Nil entries are skipped.
func MultiObserver(observers ...Observer) Observer {
	return ObserverFunc(func(ctx context.Context, ev Event) {
		for _, o := range observers {
			if o != nil {
				o.OnEvent(ctx, ev)
			}
		}
	})
}
