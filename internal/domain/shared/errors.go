package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error: invalid input, a broken
// business rule or a refused operation. Callers can recover from it.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, ErrNotFound) matches any not-found error regardless of message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
)

// NotFound returns a NOT_FOUND domain error with a specific message
func NotFound(format string, args ...any) *DomainError {
	return NewDomainError(ErrNotFound.Code, fmt.Sprintf(format, args...))
}

// PersistenceError wraps a storage failure (connectivity, constraint
// violation, driver error). It marks "the system failed to persist" as
// opposed to "the input was invalid".
type PersistenceError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying storage error
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// WrapPersistence wraps err as a PersistenceError. Nil stays nil and errors
// that are already domain or persistence errors pass through unchanged.
func WrapPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	var persistErr *PersistenceError
	if errors.As(err, &persistErr) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistenceError reports whether err (or anything it wraps) is a PersistenceError
func IsPersistenceError(err error) bool {
	var persistErr *PersistenceError
	return errors.As(err, &persistErr)
}
