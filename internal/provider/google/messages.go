package google

import (
	ai "github.com/spetersoncode/mcpagent"
	"google.golang.org/genai"
)

// convertMessages splits system messages into a system instruction and maps
// the remaining turns onto Gemini contents.
func convertMessages(messages []ai.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var system *genai.Content

	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case ai.RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, &genai.Part{Text: msg.Content})
		case ai.RoleAssistant:
			contents = append(contents, textContent("model", msg.Content))
		default:
			contents = append(contents, textContent("user", msg.Content))
		}
	}

	return contents, system
}

func textContent(role, text string) *genai.Content {
	return &genai.Content{Role: role, Parts: []*genai.Part{{Text: text}}}
}
