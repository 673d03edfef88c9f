package action

import (
	"errors"
	"fmt"
)

// ErrMalformedAction matches every error returned by Parse.
var ErrMalformedAction = errors.New("malformed action")

// MalformedActionError describes why model output could not be parsed.
type MalformedActionError struct {
	Reason string
	Err    error
}

// Error returns a message suitable for feeding back to the model.
func (e *MalformedActionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Failed to parse tool call: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("Failed to parse tool call: %s", e.Reason)
}

// Unwrap returns the underlying decode error, if any.
func (e *MalformedActionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrMalformedAction.
func (e *MalformedActionError) Is(target error) bool {
	return target == ErrMalformedAction
}
