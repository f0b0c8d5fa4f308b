/*
errors.go - Centralized error types for the planner

PURPOSE:
  All error types in one place for consistency and discoverability.
  Stores translate driver failures into these sentinels; handlers map
  them to HTTP status codes.

ERROR CATEGORIES:
  1. Lookup errors     - missing rows, rows owned by someone else
  2. Validation errors - bad input (titles, dates, kinds)
  3. Store errors      - uniqueness and encoding failures

USAGE:
  if errors.Is(err, planner.ErrNotFound) {
      // 404
  }

SEE ALSO:
  - store/sqlite/sqlite.go: translates constraint failures
  - api/handlers.go: statusFor maps errors to HTTP codes
*/
package planner

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced row doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the viewer may not see or change a row.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated is returned when no valid session backs a request.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrValidation is returned for invalid client input.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicate is returned when a uniqueness rule is violated:
	// one habit check per (habit, date), one priority per (user, date),
	// one membership per (circle, user).
	ErrDuplicate = errors.New("duplicate")

	// ErrInviteInvalid is returned for unknown, expired or used invites.
	ErrInviteInvalid = errors.New("invalid or expired invite")

	// ErrMalformedArray is returned when free text is written to a column
	// that stores a string array.
	ErrMalformedArray = errors.New("malformed array literal")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrMalformedArray)
}

// IsNotFound returns true if the error indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
