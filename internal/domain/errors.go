package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the services. Callers match them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidRange = errors.New("invalid range")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
)

// Invalid-state refinements. All of them match ErrInvalidState.
var (
	ErrUnknownState      = fmt.Errorf("%w: unknown state", ErrInvalidState)
	ErrInvalidPage       = fmt.Errorf("%w: invalid pagination parameters", ErrInvalidState)
	ErrAlreadyApproved   = fmt.Errorf("%w: booking already approved", ErrInvalidState)
	ErrItemUnavailable   = fmt.Errorf("%w: item is not available", ErrInvalidState)
	ErrCommentNotAllowed = fmt.Errorf("%w: user has no finished booking of the item", ErrInvalidState)
)

// StoreError wraps an infrastructure failure of the persistence layer.
// It never matches any of the domain kinds above.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError returns nil for a nil err.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
