package agui

import (
	"fmt"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/mcpagent/action"
	"github.com/spetersoncode/mcpagent/agent"
)

// Mapper converts agent run events to AG-UI events.
//
// One agent event may expand to several AG-UI events, since AG-UI models
// tool calls and messages as Start-Content-End sequences. The Mapper tracks
// the open step and tool call so every sequence it starts is closed.
//
// Create a new Mapper for each run. The Mapper is not safe for concurrent use.
type Mapper struct {
	threadID string
	runID    string

	stepName   string
	toolCallID string
}

// NewMapper creates a Mapper for a single run.
// An empty threadID is generated; an empty runID is taken from the agent's
// run_start event.
func NewMapper(threadID, runID string) *Mapper {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	return &Mapper{
		threadID: threadID,
		runID:    runID,
	}
}

// ThreadID returns the thread ID for this mapper.
func (m *Mapper) ThreadID() string {
	return m.threadID
}

// RunID returns the run ID for this mapper.
func (m *Mapper) RunID() string {
	return m.runID
}

// RunStarted returns a RUN_STARTED event.
func (m *Mapper) RunStarted() events.Event {
	return events.NewRunStartedEvent(m.threadID, m.runID)
}

// RunFinished returns a RUN_FINISHED event.
func (m *Mapper) RunFinished() events.Event {
	return events.NewRunFinishedEvent(m.threadID, m.runID)
}

// RunError returns a RUN_ERROR event.
func (m *Mapper) RunError(err error) events.Event {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return events.NewRunErrorEvent(msg)
}

// Map converts an agent event to zero or more AG-UI events.
func (m *Mapper) Map(e agent.Event) []events.Event {
	switch e.Type {
	case agent.EventRunStart:
		if m.runID == "" {
			m.runID = e.RunID
		}
		if m.runID == "" {
			m.runID = events.GenerateRunID()
		}
		return []events.Event{m.RunStarted()}

	case agent.EventStepStart:
		out := m.closeStep()
		m.stepName = StepName(e.Step)
		return append(out, events.NewStepStartedEvent(m.stepName))

	case agent.EventAction:
		if e.Action == nil || e.Action.IsFinal() {
			return nil
		}
		return m.startToolCall(*e.Action, e.Step)

	case agent.EventObservation:
		var out []events.Event
		if m.toolCallID != "" {
			out = append(out, events.NewToolCallResultEvent(events.GenerateMessageID(), m.toolCallID, e.Observation))
			m.toolCallID = ""
		}
		return append(out, m.closeStep()...)

	case agent.EventStepError:
		var out []events.Event
		if m.toolCallID != "" {
			out = append(out, events.NewToolCallResultEvent(events.GenerateMessageID(), m.toolCallID, e.Observation))
			m.toolCallID = ""
		}
		return append(out, m.closeStep()...)

	case agent.EventFinalAnswer:
		id := events.GenerateMessageID()
		out := []events.Event{events.NewTextMessageStartEvent(id, events.WithRole(RoleAssistant))}
		if e.Answer != "" {
			out = append(out, events.NewTextMessageContentEvent(id, e.Answer))
		}
		out = append(out, events.NewTextMessageEndEvent(id))
		return append(out, m.closeStep()...)

	case agent.EventRunEnd:
		out := m.closeStep()
		if e.Termination == agent.TerminationError {
			return append(out, m.RunError(e.Error))
		}
		if e.Termination == agent.TerminationMaxSteps {
			id := events.GenerateMessageID()
			out = append(out,
				events.NewTextMessageStartEvent(id, events.WithRole(RoleAssistant)),
				events.NewTextMessageContentEvent(id, e.Answer),
				events.NewTextMessageEndEvent(id),
			)
		}
		return append(out, m.RunFinished())

	default:
		return nil
	}
}

// StepName returns the AG-UI step name for a 1-indexed step number.
func StepName(step int) string {
	return fmt.Sprintf("step-%d", step)
}

// ToolCallID returns the tool call ID used for the action of a step.
func ToolCallID(runID string, step int) string {
	return fmt.Sprintf("%s-call-%d", runID, step)
}

func (m *Mapper) startToolCall(a action.Action, step int) []events.Event {
	m.toolCallID = ToolCallID(m.runID, step)
	args := "{}"
	if a.Arguments != nil {
		args = argumentsJSON(a)
	}
	return []events.Event{
		events.NewToolCallStartEvent(m.toolCallID, a.Name),
		events.NewToolCallArgsEvent(m.toolCallID, args),
		events.NewToolCallEndEvent(m.toolCallID),
	}
}

// closeStep finishes the open step, if any. A tool call still awaiting its
// result is abandoned; the run was cancelled mid-step.
func (m *Mapper) closeStep() []events.Event {
	m.toolCallID = ""
	if m.stepName == "" {
		return nil
	}
	ev := events.NewStepFinishedEvent(m.stepName)
	m.stepName = ""
	return []events.Event{ev}
}
