// Package client builds the model used by the agent from configuration.
//
// New selects a provider backend (OpenAI, Anthropic, Gemini or Vertex AI)
// and wraps it with:
//
//   - Automatic retries: exponential backoff for transient errors,
//     honoring Retry-After hints
//   - Rate limiting: an optional token bucket in requests per minute
//   - Event emission: request, retry and failure events on a channel,
//     tagged with the agent run and step from ai.WithStepInfo
//
// # Basic Usage
//
//	temp := 0.7
//	m, err := client.New(ctx, client.Config{
//	    Provider:    mcpagent.ProviderOpenAI,
//	    Model:       "gpt-4o-mini",
//	    APIKeys:     client.APIKeys{OpenAI: os.Getenv("OPENAI_API_KEY")},
//	    Temperature: &temp,
//	    JSONMode:    true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	a := agent.New(m, connector)
//
// # Retries
//
// Retries default to DefaultRetry. Pass NoRetry to make a single call:
//
//	once := client.NoRetry()
//	m, err := client.New(ctx, client.Config{..., Retry: &once})
package client
