package mcpagent

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorCategory classifies errors by how they should be handled.
type ErrorCategory string

const (
	// ErrorTransient indicates the error is temporary and the operation can be retried.
	// Examples: rate limits, temporary network issues, server overload.
	ErrorTransient ErrorCategory = "transient"

	// ErrorPermanent indicates the error is not recoverable through retry.
	// Examples: invalid API key, insufficient permissions, model not found.
	ErrorPermanent ErrorCategory = "permanent"

	// ErrorUserInput indicates the request was invalid and must be corrected.
	ErrorUserInput ErrorCategory = "user_input"
)

// CategorizedError is an error that provides information about how it should be handled.
type CategorizedError interface {
	error
	Category() ErrorCategory
	StatusCode() int           // HTTP status code if applicable, 0 otherwise
	RetryAfter() time.Duration // suggested retry delay from server, 0 if not available
}

// Error is a categorized error with metadata for retry decisions.
type Error struct {
	Msg        string
	Cat        ErrorCategory
	Code       int
	RetryDelay time.Duration
	Cause      error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Msg {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Cause }

// Category returns the error category.
func (e *Error) Category() ErrorCategory { return e.Cat }

// StatusCode returns the HTTP status code, or 0 if not applicable.
func (e *Error) StatusCode() int { return e.Code }

// RetryAfter returns the suggested retry delay, or 0 if not available.
func (e *Error) RetryAfter() time.Duration { return e.RetryDelay }

// CategorizeStatus maps an HTTP status code onto an error category.
func CategorizeStatus(code int) ErrorCategory {
	switch {
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return ErrorTransient
	case code >= 500 && code < 600:
		return ErrorTransient
	case code == http.StatusBadRequest, code == http.StatusNotFound, code == http.StatusUnprocessableEntity:
		return ErrorUserInput
	default:
		return ErrorPermanent
	}
}

// NewStatusError builds a categorized error from a provider's HTTP failure.
// A positive retryAfter always marks the error transient.
func NewStatusError(code int, retryAfter time.Duration, cause error) *Error {
	cat := CategorizeStatus(code)
	if retryAfter > 0 {
		cat = ErrorTransient
	}
	msg := http.StatusText(code)
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Msg:        msg,
		Cat:        cat,
		Code:       code,
		RetryDelay: retryAfter,
		Cause:      cause,
	}
}

// ParseRetryAfter extracts the Retry-After duration from an HTTP response.
// Returns 0 if the header is absent or cannot be parsed.
func ParseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}
	return 0
}

// IsTransient returns true if err, or any error it wraps, is categorized as transient.
func IsTransient(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorTransient
	}
	return false
}

// IsPermanent returns true if err, or any error it wraps, is categorized as permanent.
func IsPermanent(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorPermanent
	}
	return false
}

// RetryAfterOf returns the retry delay from a categorized error, or 0.
func RetryAfterOf(err error) time.Duration {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.RetryAfter()
	}
	return 0
}
