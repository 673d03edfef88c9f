package tool

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTool matches every UnknownToolError.
	ErrUnknownTool = errors.New("tool: unknown tool")

	// ErrToolExecution matches every ExecutionError.
	ErrToolExecution = errors.New("tool: execution failed")
)

// UnknownToolError is returned when an action names a tool the server did
// not advertise.
type UnknownToolError struct {
	Name string
}

// Error returns a formatted error message including the tool name.
func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("Tool not found: %s", e.Name)
}

// Is reports whether target is ErrUnknownTool.
func (e *UnknownToolError) Is(target error) bool {
	return target == ErrUnknownTool
}

// ExecutionError wraps a failure reported by the transport or the tool.
// Its message is the underlying message, unchanged.
type ExecutionError struct {
	Name string
	Err  error
}

func (e *ExecutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("tool %s failed", e.Name)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrToolExecution.
func (e *ExecutionError) Is(target error) bool {
	return target == ErrToolExecution
}
