// Package google implements [mcpagent.Model] on top of the Gemini API via
// google.golang.org/genai.
//
// System messages become the request's system instruction; assistant turns
// are sent with the "model" role.
//
// The same client serves Vertex AI when built with [WithVertex]; credentials
// then come from Application Default Credentials:
//
//	m, err := google.New(ctx, "", google.WithVertex("my-project", "us-central1"))
package google
