package agui

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/spetersoncode/mcpagent"
	"github.com/spetersoncode/mcpagent/action"
)

// Role constants matching AG-UI protocol.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ToMessages converts AG-UI messages to conversation messages.
// Tool messages and messages without content are dropped; the agent records
// tool results as user messages of its own.
func ToMessages(msgs []events.Message) []ai.Message {
	result := make([]ai.Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Content == nil {
			continue
		}
		role, ok := toRole(msg.Role)
		if !ok {
			continue
		}
		result = append(result, ai.Message{ID: msg.ID, Role: role, Content: *msg.Content})
	}
	return result
}

// FromMessages converts conversation messages to AG-UI messages, for
// MESSAGES_SNAPSHOT events.
func FromMessages(msgs []ai.Message) []events.Message {
	result := make([]events.Message, 0, len(msgs))
	for _, msg := range msgs {
		id := msg.ID
		if id == "" {
			id = events.GenerateMessageID()
		}
		content := msg.Content
		result = append(result, events.Message{
			ID:      id,
			Role:    fromRole(msg.Role),
			Content: &content,
		})
	}
	return result
}

// LastUserMessage returns the content of the last non-blank user message.
func LastUserMessage(msgs []ai.Message) (string, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == ai.RoleUser && strings.TrimSpace(msgs[i].Content) != "" {
			return msgs[i].Content, true
		}
	}
	return "", false
}

func toRole(role string) (ai.Role, bool) {
	switch role {
	case RoleUser:
		return ai.RoleUser, true
	case RoleAssistant:
		return ai.RoleAssistant, true
	case RoleSystem:
		return ai.RoleSystem, true
	default:
		return "", false
	}
}

func fromRole(role ai.Role) string {
	switch role {
	case ai.RoleAssistant:
		return RoleAssistant
	case ai.RoleSystem:
		return RoleSystem
	default:
		return RoleUser
	}
}

func argumentsJSON(a action.Action) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(a.Arguments); err != nil {
		return "{}"
	}
	return strings.TrimRight(buf.String(), "\n")
}
