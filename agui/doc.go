// Package agui streams agent runs to AG-UI frontends.
//
// AG-UI (Agent-User Interface) is an event-based protocol for connecting
// agents to user-facing applications. This package maps the agent's run
// events onto AG-UI events and writes them as server-sent events.
//
// # Event Mapping
//
//   - run_start → RUN_STARTED
//   - step_start → STEP_STARTED ("step-N")
//   - action (tool) → TOOL_CALL_START, TOOL_CALL_ARGS, TOOL_CALL_END
//   - observation → TOOL_CALL_RESULT, STEP_FINISHED
//   - step_error → TOOL_CALL_RESULT (when a tool call is open), STEP_FINISHED
//   - final_answer → TEXT_MESSAGE_START, TEXT_MESSAGE_CONTENT, TEXT_MESSAGE_END, STEP_FINISHED
//   - run_end → RUN_FINISHED, or RUN_ERROR when the run failed
//
// The raw model output and the tool list have no AG-UI equivalent and are
// not sent.
//
// # Usage
//
// [Handler] serves POST /agent, taking the last user message of a
// [RunAgentInput] as the task:
//
//	h := agui.NewHandler(model, connector, agui.WithAgentOptions(agent.WithMaxSteps(5)))
//	r := gin.New()
//	h.Register(r)
//
// A [Stream] can also be attached to any agent as its observer:
//
//	stream := agui.NewStream(w, agui.NewMapper(threadID, ""))
//	a := agent.New(model, connector, agent.WithObserver(stream))
package agui
