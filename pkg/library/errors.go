package library

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTreeNotFound is returned when a tree name is not in the library.
var ErrTreeNotFound = errors.New("tree not found")

// LoadError reports a tree document that could not be read, decoded or
// validated.
type LoadError struct {
	// FilePath is the document that failed.
	FilePath string

	// Message describes the failing stage.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load tree file %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load tree file %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// RegistryError reports a rejected registry update.
type RegistryError struct {
	// Tree is the tree name involved, if any.
	Tree string

	// Operation is the registry operation that failed.
	Operation string

	// Message describes the failure.
	Message string
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	if e.Tree != "" {
		return fmt.Sprintf("registry error for tree %q during %s: %s", e.Tree, e.Operation, e.Message)
	}
	return fmt.Sprintf("registry error during %s: %s", e.Operation, e.Message)
}

// ErrorList collects the failures of a strict load.
type ErrorList struct {
	Errors []error
}

// Error implements the error interface.
func (e *ErrorList) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors occurred:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %v\n", i+1, err)
	}
	return sb.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *ErrorList) Unwrap() []error {
	return e.Errors
}

// ToError returns nil for an empty list and the list itself otherwise.
func (e *ErrorList) ToError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}
