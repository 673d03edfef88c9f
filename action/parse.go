package action

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Parse extracts the first action found in text.
//
// Decoding starts at the first '{'. The JSON decoder stops at the end of the
// first complete value, so trailing content is ignored. Numbers are kept as
// json.Number to preserve precision when arguments are forwarded to a tool.
// An "arguments" value that is not an object does not fail the parse; it is
// kept in RawArguments and reported by CheckArguments.
func Parse(text string) (Action, error) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return Action{}, &MalformedActionError{Reason: "no JSON object found in text"}
	}

	dec := json.NewDecoder(strings.NewReader(text[start:]))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return Action{}, &MalformedActionError{Reason: "invalid JSON", Err: err}
	}

	nameValue, ok := raw["name"]
	if !ok {
		return Action{}, &MalformedActionError{Reason: "tool call missing 'name' field"}
	}
	name, ok := nameValue.(string)
	if !ok {
		return Action{}, &MalformedActionError{Reason: fmt.Sprintf("'name' must be a string, got %T", nameValue)}
	}

	act := Action{Name: name, Arguments: map[string]any{}}
	if v, ok := raw["arguments"]; ok && v != nil {
		if m, ok := v.(map[string]any); ok {
			act.Arguments = m
		} else {
			act.RawArguments = v
		}
	}
	return act, nil
}
