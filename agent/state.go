package agent

import ai "github.com/spetersoncode/mcpagent"

// State is the lifecycle state of an Agent.
type State string

const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StateStepping     State = "stepping"
	StateDone         State = "done"
	StateExhausted    State = "exhausted"
	StateFailed       State = "failed"
)

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	switch s {
	case StateDone, StateExhausted, StateFailed:
		return true
	}
	return false
}

// Termination indicates why a run stopped.
type Termination string

const (
	// TerminationFinalAnswer indicates the model emitted final_answer.
	TerminationFinalAnswer Termination = "final_answer"

	// TerminationMaxSteps indicates the step budget ran out.
	TerminationMaxSteps Termination = "max_steps"

	// TerminationError indicates the run failed.
	TerminationError Termination = "error"
)

// NoFinalAnswer is the answer reported when the step budget runs out.
const NoFinalAnswer = "No final answer provided within the maximum number of steps."

// Result contains the outcome of a run.
type Result struct {
	RunID string

	// Answer is the final answer, or NoFinalAnswer when the budget ran out.
	Answer string

	// Steps is the number of steps executed.
	Steps int

	Termination Termination

	// Messages is the conversation at the end of the run.
	Messages []ai.Message
}
