// Package apperr defines the sentinel errors shared across the application.
package apperr

import "errors"

var (
	// ErrNotFound is returned when an item, parent, tag, or attachment is
	// absent or not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOperation is returned when a mutation would violate a
	// structural invariant (self-move, move into a descendant, move into a
	// note, content edit on a folder).
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrVersionConflict is returned when an optimistic-concurrency check
	// fails. The stored item is left entirely unmodified.
	ErrVersionConflict = errors.New("version conflict")

	// ErrUnauthenticated is returned when no owner identity can be resolved.
	ErrUnauthenticated = errors.New("unauthenticated")
)
