// Package errors provides structured error types for the skyquery clients.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the client packages
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND_*: Resource not found
//   - NETWORK_*: Network-related errors
//   - JOB_*: Asynchronous query job failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidCoord, "declination out of range: %f", dec)
//	if errors.Is(err, errors.ErrCodeInvalidCoord) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidCoord   Code = "INVALID_COORD"
	ErrCodeInvalidRadius  Code = "INVALID_RADIUS"
	ErrCodeInvalidQuery   Code = "INVALID_QUERY"
	ErrCodeInvalidService Code = "INVALID_SERVICE"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeObjectNotFound  Code = "OBJECT_NOT_FOUND"
	ErrCodeServiceNotFound Code = "SERVICE_NOT_FOUND"
	ErrCodeTableNotFound   Code = "TABLE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeForbidden    Code = "FORBIDDEN"

	// Remote service errors
	ErrCodeServiceError Code = "SERVICE_ERROR"
	ErrCodeParse        Code = "PARSE_ERROR"

	// Asynchronous job errors
	ErrCodeJobFailed  Code = "JOB_FAILED"
	ErrCodeJobAborted Code = "JOB_ABORTED"
	ErrCodeJobTimeout Code = "JOB_TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// RateLimitedError provides additional information for rate-limited responses.
// NASA ADS in particular enforces daily quotas and reports the wait via the
// Retry-After header.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}

// ServiceError carries an error message produced by the remote service itself,
// e.g. a VOTable INFO element with QUERY_STATUS="ERROR" or a UWS job error
// summary. The HTTP exchange succeeded; the service rejected the query.
type ServiceError struct {
	Service string // Service or endpoint name (may be empty)
	Message string // Message as reported by the service
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("%s: %s", e.Service, e.Message)
	}
	return e.Message
}

// Code returns the error code for this error type.
func (e *ServiceError) Code() Code {
	return ErrCodeServiceError
}

// ParseError reports a malformed remote-service response. It retains a
// truncated copy of the raw payload so callers can inspect what the service
// actually returned.
type ParseError struct {
	Format string // Expected format ("votable", "json", "csv", "fits", "uws")
	Raw    []byte // Truncated raw payload (at most RawLimit bytes)
	Cause  error
}

// RawLimit caps how much of a malformed payload a ParseError retains.
const RawLimit = 4096

// NewParseError creates a ParseError retaining at most RawLimit bytes of raw.
func NewParseError(format string, raw []byte, cause error) *ParseError {
	if len(raw) > RawLimit {
		raw = raw[:RawLimit]
	}
	return &ParseError{Format: format, Raw: raw, Cause: cause}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed %s response: %v", e.Format, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Cause
}
