package narrative

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey means no credential is configured for the generation
	// service. Callers should surface it as a setup problem, not an outage.
	ErrMissingAPIKey = errors.New("narrative: api key not configured")

	// ErrEmptyCompletion means the service answered successfully but
	// returned no usable text.
	ErrEmptyCompletion = errors.New("narrative: empty completion")
)

// ServiceError is returned when the generation service answers with a
// non-success status.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("narrative: service returned %d: %s", e.StatusCode, e.Message)
}
