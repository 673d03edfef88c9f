// Package transcript persists finished agent conversations.
//
// A transcript is stored as JSONL: one {"role","content"} object per line,
// named messages_YYYYMMDD_HHMMSS.jsonl after the time it was saved. Two
// backends implement [Store]: [Dir] keeps one file per transcript and
// [Redis] keeps one list per transcript plus a time-ordered index.
//
//	store := transcript.NewDir("~/.ai-agent-cli/logs")
//	name, err := store.Save(ctx, result.Messages)
package transcript

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ai "github.com/spetersoncode/mcpagent"
)

// Extension is the file extension of saved transcripts.
const Extension = ".jsonl"

var (
	// ErrInvalidName indicates a transcript name that could escape the store.
	ErrInvalidName = errors.New("transcript: invalid name")

	// ErrNotFound indicates the requested transcript does not exist.
	ErrNotFound = errors.New("transcript: not found")
)

// Store saves, lists, loads and deletes transcripts.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save writes messages as a new transcript and returns its name.
	Save(ctx context.Context, messages []ai.Message) (string, error)

	// List returns transcript names, newest first.
	List(ctx context.Context) ([]string, error)

	// Load reads a transcript by name.
	Load(ctx context.Context, name string) ([]ai.Message, error)

	// Delete removes a transcript by name.
	Delete(ctx context.Context, name string) error
}

// Name returns the transcript name for a save at t.
func Name(t time.Time) string {
	return "messages_" + t.Format("20060102_150405") + Extension
}

// ValidateName rejects empty names and names containing "..", "/" or "\".
func ValidateName(name string) error {
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// uniqueName returns Name(t), or Name(t) with a numeric suffix when taken
// reports the plain name as already used.
func uniqueName(t time.Time, taken func(string) (bool, error)) (string, error) {
	base := strings.TrimSuffix(Name(t), Extension)
	name := base + Extension
	for i := 1; ; i++ {
		used, err := taken(name)
		if err != nil {
			return "", err
		}
		if !used {
			return name, nil
		}
		name = fmt.Sprintf("%s_%d%s", base, i, Extension)
	}
}

// record is the on-disk shape of a message. IDs are not persisted.
type record struct {
	Role    ai.Role `json:"role"`
	Content string  `json:"content"`
}

// Encode writes messages to w as JSONL.
func Encode(w io.Writer, messages []ai.Message) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, m := range messages {
		if err := enc.Encode(record{Role: m.Role, Content: m.Content}); err != nil {
			return err
		}
	}
	return nil
}

// encodeLines returns one JSON line per message, without trailing newlines.
func encodeLines(messages []ai.Message) ([]string, error) {
	if len(messages) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := Encode(&buf, messages); err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n"), nil
}

// Decode parses a transcript. It accepts a JSON array of messages as well
// as JSONL; blank lines are skipped. Every message must have a known role.
func Decode(data []byte) ([]ai.Message, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []ai.Message{}, nil
	}

	if trimmed[0] == '[' {
		var records []record
		if err := json.Unmarshal(trimmed, &records); err == nil {
			return fromRecords(records)
		}
	}

	var records []record
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var r record
		if err := json.Unmarshal(text, &r); err != nil {
			return nil, fmt.Errorf("transcript: line %d: %w", line, err)
		}
		records = append(records, r)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}
	return fromRecords(records)
}

func fromRecords(records []record) ([]ai.Message, error) {
	messages := make([]ai.Message, len(records))
	for i, r := range records {
		if !r.Role.Valid() {
			return nil, fmt.Errorf("transcript: message %d: unknown role %q", i+1, r.Role)
		}
		messages[i] = ai.Message{Role: r.Role, Content: r.Content}
	}
	return messages, nil
}
