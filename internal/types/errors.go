package types

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the record and account stores. Check them with
// errors.Is; every *Error carries exactly one of them as its Kind.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Error is a store error with the operation that produced it.
type Error struct {
	Op      string // e.g. "records.Insert", "accounts.Register"
	Kind    error  // one of the Err* kinds above
	Message string // human-readable detail
	Err     error  // underlying cause, optional
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause, or the kind when there is none.
func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is reports whether target matches the kind or the wrapped cause.
func (e *Error) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// NewError builds an *Error without an underlying cause.
func NewError(op string, kind error, message string) *Error {
	return &Error{Op: op, Kind: kind, Message: message}
}

// WrapError builds an *Error around an underlying cause.
func WrapError(op string, kind error, message string, err error) *Error {
	return &Error{Op: op, Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or nil if err carries none of the known kinds.
func KindOf(err error) error {
	for _, kind := range []error{ErrInvalidInput, ErrNotFound, ErrAlreadyExists, ErrStorageUnavailable} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
