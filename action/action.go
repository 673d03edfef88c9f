// Package action decodes model output into structured tool-invocation intents.
//
// A model reply is expected to contain one JSON object of the form
//
//	{"name": "tool_name", "arguments": {"arg1": "value1"}}
//
// Parse tolerates prose before the object and ignores anything after it.
package action

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FinalAnswer is the reserved name of the terminal action.
const FinalAnswer = "final_answer"

// AnswerArgument is the FinalAnswer argument holding the run's result.
const AnswerArgument = "answer"

// Action is a tool invocation decoded from model output.
type Action struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`

	// RawArguments holds a decoded "arguments" value that was not an
	// object. Arguments is empty when it is set.
	RawArguments any `json:"-"`
}

// CheckArguments reports an error when the arguments were not an object.
func (a Action) CheckArguments() error {
	if a.RawArguments == nil {
		return nil
	}
	return fmt.Errorf("arguments must be an object, got %s", jsonKind(a.RawArguments))
}

func jsonKind(v any) string {
	switch v.(type) {
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// IsFinal reports whether a is the terminal final_answer action.
func (a Action) IsFinal() bool {
	return a.Name == FinalAnswer
}

// Answer returns the answer argument as text.
// A missing argument yields "", a string is returned as is, and any other
// value is rendered as compact JSON.
func (a Action) Answer() string {
	v, ok := a.Arguments[AnswerArgument]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	}
	data, err := marshal(v)
	if err != nil {
		return ""
	}
	return data
}

// String renders the action in its wire encoding.
func (a Action) String() string {
	args := a.Arguments
	if args == nil {
		args = map[string]any{}
	}
	data, err := marshal(Action{Name: a.Name, Arguments: args})
	if err != nil {
		return a.Name
	}
	return data
}

// marshal encodes v as compact JSON without HTML escaping.
func marshal(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
