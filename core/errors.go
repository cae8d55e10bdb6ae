package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ConflictError indicates a state-invariant violation such as a duplicate
// active session or a duplicate enrollment.
type ConflictError struct{ message string }

func NewConflictError(msg string) error { return &ConflictError{message: msg} }
func (err ConflictError) Error() string { return err.message }

// LockedError indicates a mutation attempted on a session that already ended.
type LockedError struct{ message string }

func NewLockedError(msg string) error { return &LockedError{message: msg} }
func (err LockedError) Error() string { return err.message }

// ForbiddenError indicates a role/ownership authorization failure.
type ForbiddenError struct{ message string }

func NewForbiddenError(msg string) error { return &ForbiddenError{message: msg} }
func (err ForbiddenError) Error() string { return err.message }

// NotFoundError indicates an unknown target entity.
type NotFoundError struct{ message string }

func NewNotFoundError(msg string) error { return &NotFoundError{message: msg} }
func (err NotFoundError) Error() string { return err.message }

// NotEnrolledError indicates a student outside the class roster.
type NotEnrolledError struct{ message string }

func NewNotEnrolledError(msg string) error { return &NotEnrolledError{message: msg} }
func (err NotEnrolledError) Error() string { return err.message }

// UnsupportedFormatError indicates an export format we do not produce.
type UnsupportedFormatError struct{ message string }

func NewUnsupportedFormatError(msg string) error { return &UnsupportedFormatError{message: msg} }
func (err UnsupportedFormatError) Error() string { return err.message }

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

func IsLocked(err error) bool {
	_, ok := errors.Cause(err).(*LockedError)
	return ok
}

func IsForbidden(err error) bool {
	_, ok := errors.Cause(err).(*ForbiddenError)
	return ok
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsNotEnrolled(err error) bool {
	_, ok := errors.Cause(err).(*NotEnrolledError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
