package api

import (
	"errors"
	"fmt"
)

// Error codes carried by engine errors. Validation failures are not among
// them: invalid user input travels inside a Response, not as an error.
const (
	// ErrCodeUnknownWizard marks requests against an unregistered wizard
	// name.
	ErrCodeUnknownWizard = "UNKNOWN_WIZARD"
	// ErrCodeUnknownStep marks render or go-to targets that are not part
	// of the resolved sequence. State is left unchanged.
	ErrCodeUnknownStep = "UNKNOWN_STEP"
	// ErrCodeEmptySequence marks a resolution in which conditions
	// excluded every step. This is a definition bug, not a user state.
	ErrCodeEmptySequence = "EMPTY_SEQUENCE"
	// ErrCodeStoreUnavailable marks a failed state store operation. The
	// engine does not retry; the caller decides.
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	// ErrCodeBadDefinition marks definitions rejected at registration.
	ErrCodeBadDefinition = "BAD_DEFINITION"
	// ErrCodeCompletionFailed marks a completion hook error.
	ErrCodeCompletionFailed = "COMPLETION_FAILED"
	// ErrCodeBadRequest marks structurally invalid requests, such as a
	// go-to without a target step or an unknown intent.
	ErrCodeBadRequest = "BAD_REQUEST"
)

// ErrStoreUnavailable is part of the wrap chain of every store-related
// engine error, so callers can test with errors.Is regardless of backend.
var ErrStoreUnavailable = errors.New("state store unavailable")

// Error is the structured error returned by the engine and its
// collaborators.
type Error struct {
	Code    string
	Message string
	Step    StepID
	Details map[string]any
	Cause   error
}

// NewError creates an Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates an Error with a formatted message.
func NewErrorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("[%s] step %s: %s", e.Code, e.Step, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.Cause }

// WithStep returns a copy carrying the step id.
func (e *Error) WithStep(step StepID) *Error {
	c := *e
	c.Step = step
	return &c
}

// WithCause returns a copy wrapping the given error.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.Cause = err
	return &c
}

// WithDetails returns a copy with the details map attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	c := *e
	c.Details = details
	return &c
}

// ErrorCode extracts the code from an engine error. It returns "" when err
// does not wrap an *Error.
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
