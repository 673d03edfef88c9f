package client

import (
	"time"

	ai "github.com/spetersoncode/mcpagent"
)

// EventType identifies the kind of event occurring during client operations.
type EventType string

const (
	// EventRequestStart fires before the first attempt of a model request.
	EventRequestStart EventType = "request_start"

	// EventRetry fires after a failed attempt that will be retried.
	EventRetry EventType = "retry"

	// EventRequestComplete fires when a request succeeds.
	EventRequestComplete EventType = "request_complete"

	// EventRequestError fires when a request fails for good.
	EventRequestError EventType = "request_error"
)

// Event reports the progress of one model request. RunID and Step are set
// when the request was made by an agent step (see ai.WithStepInfo), so
// retries can be matched to the step that waited on them.
type Event struct {
	Type     EventType
	Provider ai.Provider
	Model    string
	RunID    string
	Step     int

	// Attempt is the 1-based number of the failed call for EventRetry and
	// EventRequestError.
	Attempt int
	// Wait is the pause before the next attempt for EventRetry.
	Wait time.Duration
	// Duration is the elapsed time for completed or failed requests.
	Duration time.Duration
	Error    error

	Timestamp time.Time
}

// send delivers ev without blocking; it is dropped when ch is full.
func send(ch chan<- Event, ev Event) {
	if ch == nil {
		return
	}
	ev.Timestamp = time.Now()
	select {
	case ch <- ev:
	default:
	}
}
