// Package prompt builds the system prompt that teaches a model the action
// encoding and the tools it may call.
package prompt

import (
	"encoding/json"
	"sort"
	"strings"

	ai "github.com/spetersoncode/mcpagent"
	"github.com/spetersoncode/mcpagent/action"
)

// DefaultInstructions is the base text used when no system prompt is given.
const DefaultInstructions = "You are an expert assistant who can solve tasks using tool calls."

const (
	encodingRule = "You must respond with a JSON object in the following format:\n" +
		`{"name": "tool_name", "arguments": {"arg1": "value1"}}`
	finalAnswerLine    = "- final_answer(answer: str): Provide your final answer to the task"
	finalAnswerExample = `{"name": "final_answer", "arguments": {"answer": "Your comprehensive answer"}}`
	closingReminder    = "IMPORTANT: Your response must be a valid JSON object with the format shown above."
)

// Compose returns base followed by the action encoding rule, the tool
// catalogue and examples. The output depends only on its inputs.
func Compose(base string, tools []ai.Tool) string {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(base))
	b.WriteString("\n\n")
	b.WriteString(encodingRule)
	b.WriteString("\n\n")

	b.WriteString("Available tools:\n")
	hasFinal := false
	for _, t := range tools {
		if t.Name == action.FinalAnswer {
			hasFinal = true
		}
		b.WriteString("- ")
		b.WriteString(t.Name)
		b.WriteString(": ")
		b.WriteString(t.Description)
		b.WriteString("\n")
		if params := strings.TrimSpace(t.Parameters); params != "" {
			b.WriteString("Parameters: ")
			b.WriteString(params)
			b.WriteString("\n")
		}
	}
	if !hasFinal {
		b.WriteString(finalAnswerLine)
		b.WriteString("\n")
	}

	b.WriteString("\nExamples:\n")
	for _, t := range tools {
		if t.Name == action.FinalAnswer {
			continue
		}
		example := action.Action{Name: t.Name, Arguments: exampleArguments(t.Parameters)}
		b.WriteString(example.String())
		b.WriteString("\n")
		break
	}
	b.WriteString(finalAnswerExample)
	b.WriteString("\n\n")
	b.WriteString(closingReminder)
	b.WriteString("\n")

	return b.String()
}

// exampleArguments synthesizes placeholder arguments from a JSON schema.
// Anything that is not an object schema with properties yields {}.
func exampleArguments(parameters string) map[string]any {
	args := map[string]any{}
	if strings.TrimSpace(parameters) == "" {
		return args
	}

	var schema struct {
		Properties map[string]struct {
			Type any `json:"type"`
		} `json:"properties"`
	}
	if err := json.Unmarshal([]byte(parameters), &schema); err != nil {
		return args
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		args[name] = placeholder(name, schemaType(schema.Properties[name].Type))
	}
	return args
}

// schemaType returns the first type named by a "type" keyword, which may be
// a string or a list of strings.
func schemaType(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s != "null" {
				return s
			}
		}
	}
	return ""
}

func placeholder(name, typ string) any {
	switch typ {
	case "number", "integer":
		return 0
	case "boolean":
		return false
	case "array":
		return []any{}
	case "object":
		return map[string]any{}
	default:
		return "<" + name + ">"
	}
}
