package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad or missing client input. It is returned before any network call.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence wraps a durable store read or write failure.
	ErrPersistence = errors.New("persistence failure")
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
	// ErrUnauthenticated is returned when an operation needs a session and none was attached.
	ErrUnauthenticated = errors.New("authentication required")
)

// StoreError wraps a repository error as ErrPersistence. ErrNotFound passes through unchanged.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %v: %w", op, err, ErrPersistence)
}

// InputError is a validation failure with a message fit for the caller.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Unwrap() error { return ErrValidation }
