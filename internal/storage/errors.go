package storage

import "errors"

var (
	// ErrNotFound is returned when a run, trade or cached quote does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a run, order, trade or equity
	// point whose key is already stored. Run artifacts are written once.
	ErrDuplicateKey = errors.New("duplicate key: run artifacts are append-only")

	// ErrInvalidInput is returned when a key field is empty.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable is returned when a backend cannot be reached at startup.
	ErrUnavailable = errors.New("storage backend unavailable")
)
