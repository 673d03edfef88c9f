package tool

import (
	"errors"

	ai "github.com/spetersoncode/mcpagent"
)

var (
	errNilResult   = errors.New("tool returned no result")
	errNoTextParts = errors.New("tool result has no text content")
)

// PrimaryText extracts the observation text from a tool result.
// A bare result yields its text. A structured result yields the text of its
// first text part; a structured result without one is an error.
func PrimaryText(result *ai.ToolResult) (string, error) {
	if result == nil {
		return "", errNilResult
	}
	if result.Parts == nil {
		return result.Text, nil
	}
	for _, part := range result.Parts {
		if part.Type == ai.ContentPartTypeText {
			return part.Text, nil
		}
	}
	return "", errNoTextParts
}
