package errors

import (
	"errors"
	"fmt"
)

// Error represents a typed domain error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches on the error code so sentinel values survive Clone and Wrap.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e != nil && e.Code == t.Code
}

// New creates a new Error instance.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Predefined errors for the failure taxonomy surfaced to the shell.
var (
	ErrValidation         = New("VALIDATION_ERROR", "validation failed")
	ErrDuplicateRoll      = New("DUPLICATE_ROLL", "roll number already exists")
	ErrNotFound           = New("NOT_FOUND", "record not found")
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", "invalid username or password")
	ErrForbidden          = New("FORBIDDEN", "operation not permitted for this role")
	ErrUnauthenticated    = New("UNAUTHENTICATED", "no active session")
	ErrEmptyUndo          = New("EMPTY_UNDO", "nothing to undo")
	ErrEmptyRedo          = New("EMPTY_REDO", "nothing to redo")
	ErrFileAccess         = New("FILE_ACCESS", "file operation failed")
	ErrSchemaMismatch     = New("SCHEMA_MISMATCH", "import file missing required columns")
	ErrInternal           = New("INTERNAL_ERROR", "internal error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
