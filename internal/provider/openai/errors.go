package openai

import (
	"errors"

	"github.com/openai/openai-go"
	ai "github.com/spetersoncode/mcpagent"
)

// wrapError categorizes an OpenAI SDK error by status code and carries the
// server's Retry-After hint for the retry layer.
func wrapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		// Network failures are left to the retry heuristics.
		return err
	}
	return ai.NewStatusError(apiErr.StatusCode, ai.ParseRetryAfter(apiErr.Response), err)
}
