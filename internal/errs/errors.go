package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
    // ErrValidation marks bad user input: non-positive amounts, empty names,
    // out-of-range percentages, duplicate category names, unknown references.
    ErrValidation = errors.New("validation")
    // ErrNotFound is returned when an id no longer resolves (stale caller state).
    ErrNotFound = errors.New("not_found")
    // ErrStorage wraps persistence adapter failures. In-memory state stays
    // authoritative when it is returned.
    ErrStorage = errors.New("storage")
)

// FieldError is a validation failure tied to one input field.
type FieldError struct {
    Field  string
    Reason string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Reason }

// Unwrap lets errors.Is(err, ErrValidation) match field errors.
func (e *FieldError) Unwrap() error { return ErrValidation }

// Invalid builds a FieldError.
func Invalid(field, reason string) error { return &FieldError{Field: field, Reason: reason} }

// Storage joins err with ErrStorage so callers can match either.
func Storage(err error) error {
    if err == nil { return nil }
    return errors.Join(ErrStorage, err)
}
