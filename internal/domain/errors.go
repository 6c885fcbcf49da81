package domain

import "errors"

// Sentinel errors shared across services and repositories.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict means a write lost a race against another occupying slot:
	// the requested date range overlaps one already stored for the subject.
	ErrConflict = errors.New("date range conflicts with an existing slot")

	// ErrInvalidDateRange means a slot or booking range has end before start
	// or is missing one of its bounds.
	ErrInvalidDateRange = errors.New("invalid date range")
)
