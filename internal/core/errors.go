package core

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the engine. Repository failures are not
// enumerated here: they wrap and propagate unchanged, and anything that
// is neither a validation, not-found nor conflict error is treated as a
// storage failure by the boundary.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// ValidationError names the offending field of a malformed or
// out-of-range input. Caller error; never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError for the given field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
