// Package anthropic implements [mcpagent.Model] on top of the Anthropic
// Messages API.
//
// System messages are lifted out of the conversation into the request's
// system blocks, since the API accepts only user and assistant turns.
// Empty messages are skipped because the API rejects empty text blocks.
//
//	m := anthropic.New(os.Getenv("ANTHROPIC_API_KEY"),
//	    anthropic.WithOptions(mcpagent.WithMaxTokens(2048)),
//	)
//	reply, err := m.Generate(ctx, messages)
//
// JSON mode has no direct equivalent here and is ignored; the agent's
// system prompt already constrains the reply to a JSON action.
package anthropic
