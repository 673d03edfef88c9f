// Package mcpagent provides the shared types for a bounded-step, tool-using agent.
//
// The agent drives a text-generating [Model] through a loop: the model emits
// a JSON action, the action is dispatched to a tool server through a
// [Session], and the tool's result is fed back as an observation until the
// model emits the terminal "final_answer" action or the step budget runs out.
//
// # Core Interfaces
//
//   - [Model]: ordered conversation in, generated text out
//   - [Session]: list the server's tools and call them by name
//   - [Connector]: establish a fresh Session for each run
//
// Use the [github.com/spetersoncode/mcpagent/client] package to build a Model
// for OpenAI, Anthropic or Google, and the
// [github.com/spetersoncode/mcpagent/mcp] package to connect to MCP servers.
//
// # Basic Usage
//
//	model, err := client.New(ctx, client.Config{
//	    Provider: mcpagent.ProviderOpenAI,
//	    APIKeys:  client.APIKeys{OpenAI: os.Getenv("OPENAI_API_KEY")},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	a := agent.New(model, mcp.NewStdioConnector("./weatherserver", nil),
//	    agent.WithMaxSteps(5),
//	)
//
//	result, err := a.Run(ctx, "Check the weather in San Francisco")
//	if err != nil {
//	    log.Fatal(err) // the tool server could not be reached
//	}
//	fmt.Println(result.Answer)
//
// # Action Encoding
//
// Every model reply must contain a single JSON object:
//
//	{"name": "fetch_weather", "arguments": {"city": "NYC"}}
//	{"name": "final_answer", "arguments": {"answer": "It is sunny in NYC."}}
//
// Leading prose before the object is tolerated; see the
// [github.com/spetersoncode/mcpagent/action] package.
//
// # Higher-Level Packages
//
//   - [github.com/spetersoncode/mcpagent/agent]: the step loop
//   - [github.com/spetersoncode/mcpagent/prompt]: system prompt construction
//   - [github.com/spetersoncode/mcpagent/memory]: conversation memory
//   - [github.com/spetersoncode/mcpagent/tool]: action validation and dispatch
//   - [github.com/spetersoncode/mcpagent/transcript]: transcript persistence
package mcpagent
