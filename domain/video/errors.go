package video

import (
	"errors"
	"fmt"
)

var (
	// ErrLoad is returned when the codec engine fails to fetch its resources or initialize
	ErrLoad = errors.New("engine failed to load")

	// ErrNotInitialized is returned when an operation runs without a loaded engine
	ErrNotInitialized = errors.New("engine not initialized")

	// ErrIO is returned when a staged write, read or delete fails
	ErrIO = errors.New("staged file i/o failed")

	// ErrNotFound is returned when a staged file does not exist
	ErrNotFound = errors.New("staged file not found")

	// ErrExecution is returned when the engine rejects or fails a command
	ErrExecution = errors.New("engine command failed")

	// ErrInvalidArgument is returned for empty input lists and invalid numeric ranges
	ErrInvalidArgument = errors.New("invalid argument")
)

// ValidationError describes which request field was rejected and why
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidArgument, e.Message)
	}
	return fmt.Sprintf("%s: %s %s", ErrInvalidArgument, e.Field, e.Message)
}

// Unwrap lets callers match ValidationError with errors.Is(err, ErrInvalidArgument)
func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}
