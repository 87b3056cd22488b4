package schema

import "errors"

// Domain errors shared across layers.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a malformed document or rule was supplied.
	// This is the only error class Analyze surfaces as a hard failure.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable indicates an external collaborator (model, knowledge
	// base) could not be reached after retries.
	ErrUnavailable = errors.New("service unavailable")
)
