package google

import (
	"errors"

	ai "github.com/spetersoncode/mcpagent"
	"google.golang.org/genai"
)

// BlockedError is returned when Gemini refuses the prompt.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return "google: prompt blocked: " + e.Reason
}

// wrapError categorizes a GenAI error by status code.
// genai.APIError does not expose headers, so no Retry-After is carried.
func wrapError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	return ai.NewStatusError(apiErr.Code, 0, err)
}
