// Package apperr holds sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout is returned when digest generation does not finish in time.
	// It is distinct from a failure reported by the generation service.
	ErrTimeout = errors.New("timed out")

	ErrDigestDisabled = errors.New("weekly digest disabled")
)
