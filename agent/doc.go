// Package agent runs the bounded-step tool-calling loop.
//
// Each run opens a session through the agent's connector, lists the
// server's tools and composes a system prompt that documents them. It then
// asks the model for one JSON action per step. A tool action is dispatched
// and its result is appended as an observation. The final_answer action
// ends the run. Failures inside a step (malformed output, unknown tools,
// tool or model errors) become observations of the form
//
//	Error: <message>
//	Please try a different approach.
//
// and the loop continues until the step budget is spent.
//
// # Basic Usage
//
//	a := agent.New(model, mcp.NewStdioConnector("./weatherserver", nil),
//	    agent.WithMaxSteps(5),
//	)
//
//	result, err := a.Run(ctx, "What's the weather in NYC?")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Answer)
//
// # Observing Runs
//
// Observers receive events synchronously and in order:
//
//	a := agent.New(model, connector, agent.WithObserver(
//	    agent.ObserverFunc(func(ctx context.Context, ev agent.Event) {
//	        if ev.Type == agent.EventAction {
//	            fmt.Printf("[Tool: %s]\n", ev.Action.Name)
//	        }
//	    }),
//	))
//
// # Configuration Options
//
//   - WithMaxSteps(n): step budget per run (default: 20)
//   - WithSystemPrompt(s): base instructions placed before the tool catalogue
//   - WithModelTimeout(d), WithToolTimeout(d): per-call deadlines
//   - WithObserver(obs): event callbacks
//   - WithLogger(l): structured logger (default: slog.Default())
//   - WithTracerProvider(tp): OpenTelemetry spans for runs and steps
//
// Per-run options are WithRunMaxSteps and WithReset.
//
// # Termination
//
//   - The model emits final_answer (TerminationFinalAnswer)
//   - The step budget is spent (TerminationMaxSteps); the answer is NoFinalAnswer
//   - The session cannot be initialized or ctx is done (TerminationError)
package agent
