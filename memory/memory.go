// Package memory holds the ordered conversation of a single agent.
//
// At most one system message is kept and it is always at the head. Appending
// a new system message replaces the old one; every other role is appended in
// order. Messages are never mutated once stored.
package memory

import (
	"sync"

	ai "github.com/spetersoncode/mcpagent"
)

// Memory is an ordered conversation with a unique leading system message.
type Memory struct {
	mu       sync.RWMutex
	messages []ai.Message
}

// New creates an empty Memory.
func New() *Memory {
	return &Memory{messages: make([]ai.Message, 0)}
}

// NewFrom creates a Memory initialized with a copy of messages.
// System messages other than the last one are dropped.
func NewFrom(messages []ai.Message) *Memory {
	m := New()
	for _, msg := range messages {
		m.add(msg)
	}
	return m
}

// Append stores a new message with a generated ID and returns it.
func (m *Memory) Append(role ai.Role, content string) ai.Message {
	msg := ai.NewMessage(role, content)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(msg)
	return msg
}

// add must be called with the write lock held (or before m is shared).
func (m *Memory) add(msg ai.Message) {
	if msg.Role != ai.RoleSystem {
		m.messages = append(m.messages, msg)
		return
	}

	kept := make([]ai.Message, 0, len(m.messages)+1)
	kept = append(kept, msg)
	for _, existing := range m.messages {
		if existing.Role != ai.RoleSystem {
			kept = append(kept, existing)
		}
	}
	m.messages = kept
}

// Snapshot returns a copy of the conversation in order.
func (m *Memory) Snapshot() []ai.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]ai.Message, len(m.messages))
	copy(result, m.messages)
	return result
}

// Reset clears the conversation and stores systemContent as the only message.
func (m *Memory) Reset(systemContent string) {
	msg := ai.NewMessage(ai.RoleSystem, systemContent)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = []ai.Message{msg}
}

// Len returns the number of messages.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// System returns the current system message, if any.
func (m *Memory) System() (ai.Message, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.messages) > 0 && m.messages[0].Role == ai.RoleSystem {
		return m.messages[0], true
	}
	return ai.Message{}, false
}
