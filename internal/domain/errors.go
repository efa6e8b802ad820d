package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates a uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrUnauthenticated indicates a missing or invalid credential or token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")

	ErrEmailTaken    = fmt.Errorf("%w: email taken", ErrConflict)
	ErrUsernameTaken = fmt.Errorf("%w: username taken", ErrConflict)
)

// ValidationError describes malformed or out-of-policy input.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return e.Reason
}

func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(reason string) error {
	return ValidationError{Reason: reason}
}
