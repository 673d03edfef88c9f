package agui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/spetersoncode/mcpagent"
	"github.com/spetersoncode/mcpagent/agent"
)

// Stream is an agent.Observer that writes mapped AG-UI events to w as
// server-sent events. Writing stops at the first error, which Err reports.
type Stream struct {
	mu       sync.Mutex
	w        io.Writer
	mapper   *Mapper
	logger   *slog.Logger
	snapshot func() []ai.Message

	count int
	err   error
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithSnapshot makes the stream send a MESSAGES_SNAPSHOT of messages()
// before the run's terminal event.
func WithSnapshot(messages func() []ai.Message) StreamOption {
	return func(s *Stream) {
		s.snapshot = messages
	}
}

// WithStreamLogger sets the logger for write failures (default: slog.Default()).
func WithStreamLogger(l *slog.Logger) StreamOption {
	return func(s *Stream) {
		s.logger = l
	}
}

// NewStream returns a Stream writing events mapped by mapper to w. If w is
// an http.Flusher it is flushed after every event.
func NewStream(w io.Writer, mapper *Mapper, opts ...StreamOption) *Stream {
	s := &Stream{
		w:      w,
		mapper: mapper,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnEvent implements agent.Observer.
func (s *Stream) OnEvent(_ context.Context, ev agent.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Type == agent.EventRunEnd && s.snapshot != nil {
		s.write(events.NewMessagesSnapshotEvent(FromMessages(s.snapshot())))
	}
	for _, out := range s.mapper.Map(ev) {
		s.write(out)
	}
}

// Write sends a single AG-UI event.
func (s *Stream) Write(ev events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(ev)
	return s.err
}

// Count returns the number of events written.
func (s *Stream) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Err returns the first write error, if any.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Stream) write(ev events.Event) {
	if s.err != nil {
		return
	}
	if err := WriteSSE(s.w, ev); err != nil {
		s.err = err
		s.logger.Error("failed to write SSE event", "error", err, "event_type", ev.Type())
		return
	}
	s.count++
}

// WriteSSE writes an AG-UI event in SSE format and flushes w when it can.
func WriteSSE(w io.Writer, ev events.Event) error {
	data, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	// event: TYPE\ndata: {json}\n\n
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type(), string(data)); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
