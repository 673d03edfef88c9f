package mcpagent

import "github.com/google/uuid"

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message represents a single message in a conversation.
type Message struct {
	// ID is an optional unique identifier for the message.
	// It is not sent to the model and is omitted from transcripts when empty.
	ID      string `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a message with a generated ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:      GenerateMessageID(),
		Role:    role,
		Content: content,
	}
}

// GenerateMessageID creates a unique message identifier.
func GenerateMessageID() string {
	return "msg-" + uuid.New().String()
}
