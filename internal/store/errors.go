package store

import "errors"

var (
	// ErrConflict reports that a requested slot or status transition lost to
	// a concurrent write.
	ErrConflict = errors.New("conflict")
	// ErrNotFound reports that the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrIdempotencyConflict reports that an idempotency key was replayed
	// with different reservation fields.
	ErrIdempotencyConflict = errors.New("idempotency key conflict")
)
