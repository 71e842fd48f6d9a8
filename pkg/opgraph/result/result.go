// Package result defines the evaluation outcome types shared by every node
// kind: structured error records, the outcome list that forms the failure
// arm, and the Result alias over either.Either.
//
// Evaluation never reports failure through Go errors. A failed evaluation is
// always a Left holding an Outcomes list whose entries are Failed(error) or
// Succeeded(value) markers, in the positional order of the operands that
// produced them.
package result

import (
	"fmt"
	"strings"

	"mercator-hq/opgraph/pkg/either"
)

// ErrorTag is the fixed tag carried by every error record.
const ErrorTag = "Error"

// ErrorType categorizes an evaluation failure.
type ErrorType string

const (
	ErrorTypeValue        ErrorType = "Value"        // Injected value missing or of the wrong shape
	ErrorTypeStructural   ErrorType = "Structural"   // Node undefined, malformed or of unknown tag
	ErrorTypeConstruction ErrorType = "Construction" // Comparison subject could not be built
	ErrorTypeComparison   ErrorType = "Comparison"   // Predicate evaluated to false
	ErrorTypeOperation    ErrorType = "Operation"    // Operator could not fold its operands
	ErrorTypeTransport    ErrorType = "Transport"    // Remote fetch could not be issued or decoded
)

// Error is a structured, non-throwing error record. Operation holds a
// snapshot of the failing node together with its resolved operands so a
// consumer can locate the failure without re-walking the tree.
type Error struct {
	Tag       string         `json:"tag"`
	Type      ErrorType      `json:"type"`
	Message   string         `json:"message"`
	Operation map[string]any `json:"operation,omitempty"`
}

// NewError creates an error record of the given category.
func NewError(errType ErrorType, message string, operation map[string]any) *Error {
	return &Error{
		Tag:       ErrorTag,
		Type:      errType,
		Message:   message,
		Operation: operation,
	}
}

// String returns the category and message.
func (e *Error) String() string {
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Outcome is one entry of a failure list: either a Failed error record or a
// Succeeded marker holding the value of a sibling operand that evaluated
// successfully.
type Outcome struct {
	Err   *Error
	Value any
}

// Failed wraps an error record as an outcome.
func Failed(err *Error) Outcome {
	return Outcome{Err: err}
}

// Succeeded wraps a resolved value as an outcome.
func Succeeded(v any) Outcome {
	return Outcome{Value: v}
}

// IsFailed reports whether the outcome carries an error record.
func (o Outcome) IsFailed() bool {
	return o.Err != nil
}

// Outcomes is the failure arm of a Result.
type Outcomes []Outcome

// Errors returns only the error records, in order.
func (o Outcomes) Errors() []*Error {
	var errs []*Error
	for _, entry := range o {
		if entry.Err != nil {
			errs = append(errs, entry.Err)
		}
	}
	return errs
}

// Messages returns the messages of every error record, in order.
func (o Outcomes) Messages() []string {
	var msgs []string
	for _, err := range o.Errors() {
		msgs = append(msgs, err.Message)
	}
	return msgs
}

// HasFailure reports whether at least one entry is a Failed outcome.
func (o Outcomes) HasFailure() bool {
	for _, entry := range o {
		if entry.Err != nil {
			return true
		}
	}
	return false
}

// ByType returns all error records of the given category.
func (o Outcomes) ByType(errType ErrorType) []*Error {
	var errs []*Error
	for _, err := range o.Errors() {
		if err.Type == errType {
			errs = append(errs, err)
		}
	}
	return errs
}

// HasErrorType reports whether any error record has the given category.
func (o Outcomes) HasErrorType(errType ErrorType) bool {
	return len(o.ByType(errType)) > 0
}

// String joins the error messages for display.
func (o Outcomes) String() string {
	return strings.Join(o.Messages(), "; ")
}

// Result is the outcome of evaluating one node.
type Result = either.Either[Outcomes, any]

// Ok returns a successful result.
func Ok(v any) Result {
	return either.Right[Outcomes, any](v)
}

// Fail returns a failed result holding the given outcomes.
func Fail(outcomes ...Outcome) Result {
	return either.Left[Outcomes, any](Outcomes(outcomes))
}

// FailWith returns a failed result holding a single error record.
func FailWith(errType ErrorType, message string, operation map[string]any) Result {
	return Fail(Failed(NewError(errType, message, operation)))
}

// OutcomesOf returns the outcomes of r as a list: the failure arm as-is, or a
// single Succeeded marker for a success.
func OutcomesOf(r Result) Outcomes {
	if l, ok := r.LeftValue(); ok {
		return l
	}
	v, _ := r.RightValue()
	return Outcomes{Succeeded(v)}
}
