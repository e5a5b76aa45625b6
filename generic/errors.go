/*
errors.go - Centralized error types for the charge rate engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. NotFound            - apprentice, host employer, award or record missing
  2. ConfigurationError  - zero/negative billable hours, malformed award code
  3. UpstreamUnavailable - remote rate source failed; absorbed by the resolver
  4. ValidationError     - missing or out-of-range caller input

USAGE:
  Domain packages test categories with errors.Is:

    if errors.Is(err, generic.ErrNotFound) {
        // 404
    }

SEE ALSO:
  - ratesource/resolver.go: absorbs UpstreamUnavailable
  - costmodel/engine.go: raises ConfigurationError
  - api/handlers.go: maps categories to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced entity or record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrConfiguration is returned when inputs describe an impossible cost model.
	ErrConfiguration = errors.New("configuration error")

	// ErrUpstreamUnavailable is returned by the remote rate source when it is
	// unreachable, times out or answers with an error. Never surfaced past the
	// resolver.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrValidation is returned when required input is missing or malformed.
	ErrValidation = errors.New("validation error")

	// ErrAlreadyApproved is returned when approving an approved calculation.
	ErrAlreadyApproved = errors.New("calculation already approved")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing entity.
type NotFoundError struct {
	Kind string // "apprentice", "host_employer", "award", "calculation", "quote"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound is shorthand for &NotFoundError{...}.
func NewNotFound(kind string, id any) error {
	return &NotFoundError{Kind: kind, ID: fmt.Sprint(id)}
}

// ConfigurationError is fatal to a calculation attempt.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// ValidationError is reported before any computation begins.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UpstreamError wraps a remote failure with the stage that produced it.
type UpstreamError struct {
	Stage string // "credential", "request", "status", "decode", "match"
	Err   error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("upstream unavailable at %s", e.Stage)
	}
	return fmt.Sprintf("upstream unavailable at %s: %v", e.Stage, e.Err)
}

// Is lets errors.Is match both the category and the underlying cause.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstreamUnavailable }

func (e *UpstreamError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrConfiguration)
}

// IsConflict returns true if the error reports a state conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyApproved)
}
