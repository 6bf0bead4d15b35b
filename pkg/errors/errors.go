package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Common sentinel errors for quick checks
var (
	// ErrNotFound is returned when a job, allocation or task does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConnection is returned when the Nomad API cannot be reached.
	ErrConnection = errors.New("connection failed")

	// ErrCertificate is returned when the TLS material cannot be used.
	ErrCertificate = errors.New("certificate error")

	// ErrTransport is returned when the API answered with an unexpected response.
	ErrTransport = errors.New("transport error")

	// ErrInvalidInput is returned when configuration input is invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// Error is the base interface for all custom errors in the system.
// It extends the standard error interface with additional context.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
	stack   []uintptr
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// Stack returns the captured stack trace.
func (e *BaseError) Stack() []uintptr {
	return e.stack
}

// captureStack captures the current stack trace.
func captureStack(skip int) []uintptr {
	const maxDepth = 32
	stack := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, stack)
	return stack[:n]
}

// StackTrace returns a formatted stack trace string.
func (e *BaseError) StackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}

	var buf strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&buf, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return buf.String()
}

// ValidationError represents an input validation error.
type ValidationError struct {
	*BaseError
	Field string
	Value interface{}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		BaseError: &BaseError{
			code:    CodeValidation,
			message: message,
			stack:   captureStack(1),
		},
		Field: field,
		Value: value,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// NotFoundError represents a job, allocation or task that does not exist.
type NotFoundError struct {
	*BaseError
	Resource string
	ID       string
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{
		BaseError: &BaseError{
			code:    CodeNotFound,
			message: fmt.Sprintf("%s not found", resource),
			stack:   captureStack(1),
		},
		Resource: resource,
		ID:       id,
	}
}

// WithCause attaches the underlying error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// ConnectionError means the API endpoint could not be reached at all.
type ConnectionError struct {
	*BaseError
	Address string
}

// NewConnectionError creates a new connection error.
func NewConnectionError(address string, cause error) *ConnectionError {
	message := "connection failed"
	if address != "" {
		message = fmt.Sprintf("cannot connect to %s", address)
	}
	return &ConnectionError{
		BaseError: &BaseError{
			code:    CodeConnection,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
		Address: address,
	}
}

// CertificateError means the client TLS material is missing or unusable,
// or the peer rejected it during the handshake.
type CertificateError struct {
	*BaseError
	Path string
}

// NewCertificateError creates a new certificate error. path may be empty
// when the failure is not tied to a single file.
func NewCertificateError(path, message string, cause error) *CertificateError {
	if message == "" {
		message = "certificate error"
	}
	if path != "" {
		message = fmt.Sprintf("%s (%s)", message, path)
	}
	return &CertificateError{
		BaseError: &BaseError{
			code:    CodeCertificate,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
		Path: path,
	}
}

// TransportError covers every other API failure: unexpected status codes,
// undecodable bodies, aborted streams.
type TransportError struct {
	*BaseError
	Operation  string
	StatusCode int
}

// NewTransportError creates a new transport error. statusCode is 0 when no
// HTTP response was received.
func NewTransportError(operation string, statusCode int, cause error) *TransportError {
	message := "transport error"
	if operation != "" {
		message = fmt.Sprintf("%s failed", operation)
	}
	if statusCode != 0 {
		message = fmt.Sprintf("%s (status %d)", message, statusCode)
	}
	return &TransportError{
		BaseError: &BaseError{
			code:    CodeTransport,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
		Operation:  operation,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context.
// If the error is already one of our custom types, it preserves the code
// and adds the cause chain. Otherwise, it creates a TransportError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	if e, ok := err.(Error); ok {
		return &BaseError{
			code:    e.Code(),
			message: message,
			cause:   err,
			stack:   captureStack(1),
		}
	}

	return &TransportError{
		BaseError: &BaseError{
			code:    CodeTransport,
			message: message,
			cause:   err,
			stack:   captureStack(1),
		},
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// New creates a new error with a message.
func New(message string) error {
	return &BaseError{
		code:    CodeUnknown,
		message: message,
		stack:   captureStack(1),
	}
}

// Newf creates a new error with a formatted message.
func Newf(format string, args ...interface{}) error {
	return New(fmt.Sprintf(format, args...))
}
