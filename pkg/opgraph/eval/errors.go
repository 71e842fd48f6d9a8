package eval

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrInvalidConfig indicates an invalid evaluator configuration.
	ErrInvalidConfig = errors.New("invalid evaluator configuration")

	// ErrUnexpectedStatus indicates a remote endpoint answered with a
	// non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrSelectorNotFound indicates a selector path does not exist in a
	// fetched document.
	ErrSelectorNotFound = errors.New("selector path not found")
)

// FetchError describes a failed remote fetch. It is converted into a
// Transport error record by the FromAPI injector and never escapes an
// evaluation.
type FetchError struct {
	Method     string
	URL        string
	StatusCode int
	Cause      error
}

// Error returns the error message.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %v %d", e.Method, e.URL, e.Cause, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// SelectorError describes a selector that could not be applied to a value.
type SelectorError struct {
	Path    string
	Segment string
	Cause   error
}

// Error returns the error message.
func (e *SelectorError) Error() string {
	return fmt.Sprintf("selector %q at %q: %v", e.Path, e.Segment, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *SelectorError) Unwrap() error {
	return e.Cause
}
