// errors.go - Error kinds shared across the registry, store and handlers.
package server

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when a mutating operation is attempted
	// without an authenticated session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials covers both unknown usernames and password
	// mismatches so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateFile is returned when the sanitized storage name is
	// already taken.
	ErrDuplicateFile = errors.New("file already exists")

	// ErrFileTooLarge is returned when an upload exceeds the configured
	// size ceiling.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports a bad or missing input field. The caller is
// expected to correct the input and retry.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
