// Package errors provides the typed error codes used across the engine.
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an error that carries no domain code.
	CodeUnknown Code = "UNKNOWN"

	// CodeValidation marks user input that cannot be applied. The message is
	// shown to the player and nothing is mutated.
	CodeValidation Code = "VALIDATION"

	// CodeDataConsistency marks a catalog or state mapping that could not be
	// resolved. Callers log it and continue.
	CodeDataConsistency Code = "DATA_CONSISTENCY"

	// CodeBackend marks a failed generation call.
	CodeBackend Code = "BACKEND"

	// CodeStorage marks a failed turn log read or write.
	CodeStorage Code = "STORAGE"

	// CodeNotFound marks a missing conversation or record.
	CodeNotFound Code = "NOT_FOUND"
)

// Error is a domain error with a code and a user-facing message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Validation is shorthand for a validation error whose message is the
// player-facing response.
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// Message returns the domain message of err, or err.Error() for plain errors.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsRetryable reports whether the failed operation may be attempted again
// without further action.
func IsRetryable(err error) bool {
	return IsCode(err, CodeBackend)
}
