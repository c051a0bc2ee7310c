package meeting

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrExternalService is returned when an external service call fails.
	ErrExternalService = errors.New("external service error")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Is makes a ValidationError match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// DimensionMismatchError is returned when a vector's length differs from the
// dimensionality already established for a session.
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrInvalidInput
}

// SessionNotFoundError is returned for operations against an unknown or
// evicted session.
type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.SessionID)
}

func (e *SessionNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// SearchFailedError wraps a collaborator failure during query execution.
// The search may be retried as a whole.
type SearchFailedError struct {
	Err error
}

func (e *SearchFailedError) Error() string {
	return fmt.Sprintf("search failed: %v", e.Err)
}

func (e *SearchFailedError) Unwrap() error { return e.Err }

func (e *SearchFailedError) Is(target error) bool {
	return target == ErrExternalService
}

// IngestionFailedError wraps a collaborator failure during ingestion.
// Stage names the failing step (transcribe, analyze, embed).
type IngestionFailedError struct {
	Stage string
	Err   error
}

func (e *IngestionFailedError) Error() string {
	return fmt.Sprintf("ingestion failed at %s: %v", e.Stage, e.Err)
}

func (e *IngestionFailedError) Unwrap() error { return e.Err }

func (e *IngestionFailedError) Is(target error) bool {
	return target == ErrExternalService
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
