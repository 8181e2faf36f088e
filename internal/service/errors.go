package service

import (
	"errors"
	"fmt"

	"signlearn/internal/database"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrValidation  = errors.New("validation failed")
	ErrPersistence = errors.New("persistence failure")

	ErrLessonLocked = errors.New("lesson is locked")
	ErrLessonEmpty  = errors.New("lesson has no gestures")
	ErrForbidden    = errors.New("forbidden")
)

// storageError wraps a repository failure so that errors.Is matches
// ErrConflict for unique violations and ErrPersistence otherwise.
func storageError(dialect database.Dialect, op string, err error) error {
	if dialect.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// validationError wraps a validation.ValidationError so that errors.Is matches ErrValidation
func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// isServiceError reports whether err already carries one of the service sentinels
func isServiceError(err error) bool {
	for _, target := range []error{ErrNotFound, ErrConflict, ErrValidation, ErrPersistence, ErrLessonLocked, ErrLessonEmpty, ErrForbidden} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
