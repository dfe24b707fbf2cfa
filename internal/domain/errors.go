package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidInput marks malformed requests before they reach the dispatcher.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidStatus marks a status value outside the nine-state set.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrUnauthorized covers missing or unverifiable service tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is reserved for duplicate creation attempts.
	ErrConflict = errors.New("conflict")
)
