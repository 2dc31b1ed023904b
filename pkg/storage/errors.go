package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a history entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidUser is returned when an operation is given an empty user id.
	ErrInvalidUser = errors.New("user id must not be empty")
)
