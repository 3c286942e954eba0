package domain

import (
	"errors"
	"fmt"
)

// InvalidInputError indicates a caller-supplied parameter violated a
// precondition. It is always raised before any remote call is made.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

// NewInvalidInput creates an InvalidInputError with a formatted message.
func NewInvalidInput(format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates the requested entity is absent or logically deleted.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// NewNotFound creates a NotFoundError with a formatted message.
func NewNotFound(format string, args ...any) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError indicates a version (ETag) mismatch on write: another
// writer modified the record since it was last read.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NewConflict creates a ConflictError with a formatted message.
func NewConflict(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// DependencyError indicates a remote collaborator failed: a transport
// error, an unexpected status code, or a malformed response.
// Status is zero for transport-level failures.
type DependencyError struct {
	Message string
	Status  int
	Body    string
	Err     error
}

func (e *DependencyError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *DependencyError) Unwrap() error { return e.Err }

// NewDependency creates a transport-level DependencyError wrapping err.
func NewDependency(err error, format string, args ...any) *DependencyError {
	return &DependencyError{Message: fmt.Sprintf(format, args...), Err: err}
}

// NewDependencyStatus creates a DependencyError for an unexpected
// response status, keeping the response body for diagnostics.
func NewDependencyStatus(status int, body string, format string, args ...any) *DependencyError {
	return &DependencyError{Message: fmt.Sprintf(format, args...), Status: status, Body: body}
}

// ConsistencyError indicates two collaborators disagree about the same
// data, e.g. an alarm count without a matching alarm record. It is fatal
// to the operation that detected it and is never downgraded to a partial
// result.
type ConsistencyError struct {
	Message string
}

func (e *ConsistencyError) Error() string { return e.Message }

// NewConsistency creates a ConsistencyError with a formatted message.
func NewConsistency(format string, args ...any) *ConsistencyError {
	return &ConsistencyError{Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// IsInvalidInput reports whether err is an InvalidInputError.
func IsInvalidInput(err error) bool {
	var ii *InvalidInputError
	return errors.As(err, &ii)
}
