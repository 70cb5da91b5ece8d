package overseastax

import (
	"errors"
	"fmt"
)

// ErrorCode classifies errors for structured handling at the API boundary.
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeMissingRate  ErrorCode = "MISSING_RATE"
	ErrCodeDatabase     ErrorCode = "DATABASE_ERROR"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeUnsupported  ErrorCode = "UNSUPPORTED"
)

// Error is a structured error with a classification code.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap supports errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a classification code.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// IsErrorCode reports whether err (or anything it wraps) carries the code.
func IsErrorCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// MissingRateError reports that a year has no reference-rate entry. It is
// never fatal to a multi-year computation: the orchestrator excludes the
// year and records the omission in Diagnostics.
type MissingRateError struct {
	Year      int
	Supported []int
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("no reference exchange rate for year %d (supported years: %v)", e.Year, e.Supported)
}
