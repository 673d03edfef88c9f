package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionInitialization matches every SessionInitializationError.
	ErrSessionInitialization = errors.New("agent: session initialization failed")

	// ErrModelInvocation matches every ModelInvocationError.
	ErrModelInvocation = errors.New("agent: model invocation failed")
)

// SessionInitializationError is returned by Run when the tool session could
// not be established or its tools could not be listed. No step runs.
type SessionInitializationError struct {
	// Op is the failed operation: "connect" or "list tools".
	Op  string
	Err error
}

func (e *SessionInitializationError) Error() string {
	return fmt.Sprintf("session initialization failed: %s: %v", e.Op, e.Err)
}

func (e *SessionInitializationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrSessionInitialization.
func (e *SessionInitializationError) Is(target error) bool {
	return target == ErrSessionInitialization
}

// ModelInvocationError wraps a model failure within a step.
// The loop records it as an observation and continues.
type ModelInvocationError struct {
	Step int
	Err  error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("model invocation failed: %v", e.Err)
}

func (e *ModelInvocationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrModelInvocation.
func (e *ModelInvocationError) Is(target error) bool {
	return target == ErrModelInvocation
}
