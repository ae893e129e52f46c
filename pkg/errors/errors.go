// Package errors provides structured error types for rxrprep.
//
// Every failure in the landmark renderer and the args builder is fatal, but
// callers (and tests) still need to tell the categories apart: a missing
// instruction is not the same thing as a truncated gzip stream. This package
// attaches a machine-readable [Code] to each failure while keeping the
// original cause reachable through errors.Is/As.
//
// # Error Codes
//
// Codes follow the same naming convention throughout:
//   - INVALID_*: malformed input, flags or configuration
//   - *_NOT_FOUND / *_NOT_MAPPED: a lookup that came back empty
//   - ENGINE_ERROR: the rendering engine failed
//   - INTERNAL_ERROR: anything unexpected
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInstructionNotFound, "unable to find instruction_id: %d", id)
//	if errors.Is(err, errors.ErrCodeInstructionNotFound) {
//	    // ...
//	}
//
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidSplit  Code = "INVALID_SPLIT"
	ErrCodeInvalidRecord Code = "INVALID_RECORD"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Lookup errors
	ErrCodeFileNotFound        Code = "FILE_NOT_FOUND"
	ErrCodeInstructionNotFound Code = "INSTRUCTION_NOT_FOUND"
	ErrCodeScanNotMapped       Code = "SCAN_NOT_MAPPED"

	// Rendering errors
	ErrCodeEngine Code = "ENGINE_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// WrapFile wraps a filesystem error, classifying a missing file as
// ErrCodeFileNotFound and anything else as fallback.
func WrapFile(fallback Code, cause error, path string) *Error {
	if errors.Is(cause, fs.ErrNotExist) {
		return Wrap(ErrCodeFileNotFound, cause, "%s", path)
	}
	return Wrap(fallback, cause, "%s", path)
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// The code prefix of every *Error in the chain is dropped; any context
// added around them with fmt.Errorf is kept.
func UserMessage(err error) string {
	msg := err.Error()
	for e := err; e != nil; e = errors.Unwrap(e) {
		if x, ok := e.(*Error); ok {
			msg = strings.Replace(msg, string(x.Code)+": ", "", 1)
		}
	}
	return msg
}
