// Package apperr defines sentinel errors shared across service boundaries.
package apperr

import "errors"

var (
	// ErrNotFound is returned for owner-scoped lookups that miss. A row owned
	// by another user is reported the same way as a missing row.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a unique constraint would be violated,
	// e.g. registering an email twice.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput is returned for rejected input such as a disallowed
	// upload extension or an empty search query.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned for missing or failed credential checks.
	ErrUnauthorized = errors.New("unauthorized")
)
