package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

var (
	// ErrNotFound is returned when a record ID is unknown.
	ErrNotFound = errors.New("journal record not found")

	// ErrClosed is returned by operations on a closed store or recorder.
	ErrClosed = errors.New("journal closed")
)

// Record is a single journaled evaluation.
type Record struct {
	// ID is a random UUID assigned at recording time.
	ID string `json:"id"`

	// RequestID correlates the record with the HTTP request or CLI run.
	RequestID string `json:"request_id,omitempty"`

	// Tree is the library name of the evaluated tree, empty for inline trees.
	Tree string `json:"tree,omitempty"`

	// RootTag is the tag of the root node.
	RootTag string `json:"root_tag"`

	// Outcome is "success" or "failure".
	Outcome string `json:"outcome"`

	// ErrorCount is the number of Failed entries in a failure result.
	ErrorCount int `json:"error_count"`

	// Result is the encoded {"right": ...} or {"left": [...]} result.
	Result json.RawMessage `json:"result,omitempty"`

	// Locals are the local values with sensitive entries masked.
	Locals map[string]any `json:"locals,omitempty"`

	// Duration is the evaluation wall time.
	Duration time.Duration `json:"duration_ns"`

	// Timestamp is when the evaluation finished.
	Timestamp time.Time `json:"timestamp"`
}

// Query filters records. Zero fields do not filter.
type Query struct {
	Tree    string
	Outcome string
	Since   time.Time
	Until   time.Time

	// Limit caps the number of records returned. Zero means DefaultQueryLimit.
	Limit int
}

// DefaultQueryLimit bounds queries that do not set a limit.
const DefaultQueryLimit = 100

// MaxQueryLimit is the largest accepted limit.
const MaxQueryLimit = 10000

// Validate checks the query bounds.
func (q *Query) Validate() error {
	if q.Limit < 0 {
		return &QueryError{Message: "limit must not be negative"}
	}
	if q.Limit > MaxQueryLimit {
		return &QueryError{Message: fmt.Sprintf("limit %d exceeds maximum %d", q.Limit, MaxQueryLimit)}
	}
	if q.Outcome != "" && q.Outcome != "success" && q.Outcome != "failure" {
		return &QueryError{Message: fmt.Sprintf("unknown outcome %q", q.Outcome)}
	}
	if !q.Since.IsZero() && !q.Until.IsZero() && q.Until.Before(q.Since) {
		return &QueryError{Message: "until is before since"}
	}
	return nil
}

func (q *Query) limit() int {
	if q.Limit == 0 {
		return DefaultQueryLimit
	}
	return q.Limit
}

// matches applies the filters to r. Used by the memory store.
func (q *Query) matches(r *Record) bool {
	if q.Tree != "" && r.Tree != q.Tree {
		return false
	}
	if q.Outcome != "" && r.Outcome != q.Outcome {
		return false
	}
	if !q.Since.IsZero() && r.Timestamp.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && !r.Timestamp.Before(q.Until) {
		return false
	}
	return true
}

// Store persists records. Implementations must be safe for concurrent use.
type Store interface {
	// Write persists a record.
	Write(ctx context.Context, r *Record) error

	// Get returns the record with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Query returns matching records, newest first.
	Query(ctx context.Context, q *Query) ([]*Record, error)

	// DeleteBefore removes records older than t and returns how many.
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// Close releases resources.
	Close() error
}

// StorageError wraps a backend failure.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

func storageError(backend, op string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: op, Cause: cause}
}

// QueryError reports an invalid query.
type QueryError struct {
	Message string
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return "invalid journal query: " + e.Message
}
