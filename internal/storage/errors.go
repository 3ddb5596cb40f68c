package storage

import "errors"

// Storage errors shared by all backends.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a write targets a key that already exists.
	// Pricing results are immutable once written, so stores never update rows.
	ErrDuplicateKey = errors.New("duplicate key: pricing results are immutable")

	// ErrInvalidInput is returned when a record is nil or misses its key.
	ErrInvalidInput = errors.New("invalid input")
)
