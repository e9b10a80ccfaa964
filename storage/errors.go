package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a report or narrative record is not found.
	ErrNotFound = errors.New("entity not found")
)
