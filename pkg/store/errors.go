package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a mutation target does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports bad user input, such as an empty folder name.
// It is surfaced to the caller and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// PermissionError reports an ownership violation, such as deleting a note
// owned by another user.
type PermissionError struct {
	Op string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Op)
}

// StoreError wraps a transport or query failure reported by the backing
// store. Subscriptions and queries that fail with a StoreError are not
// retried by this layer; the caller re-triggers, typically by restarting
// the view.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
