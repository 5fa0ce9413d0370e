package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error is the console's HTTP-aware error. Code and Message reach the client;
// Err stays server side.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches a cause to a new Error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Because returns a copy of base caused by err. An empty message keeps base's.
func Because(base *Error, err error, message string) *Error {
	out := Clone(base, message)
	if out != nil {
		out.Err = err
	}
	return out
}

var (
	ErrNotFound        = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden       = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized    = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation      = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrOperationFailed = New("OPERATION_FAILED", http.StatusUnprocessableEntity, "operation failed")
	ErrUpstream        = New("UPSTREAM_ERROR", http.StatusBadGateway, "upstream request failed")
	ErrUpstreamTimeout = New("UPSTREAM_TIMEOUT", http.StatusGatewayTimeout, "upstream request timed out")
	ErrNotReady        = New("NOT_READY", http.StatusServiceUnavailable, "dependency unavailable")
	ErrInternal        = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// ErrCacheMiss signals an absent cache entry; it never reaches HTTP responses.
	ErrCacheMiss = errors.New("cache miss")
)

// FromError normalises any error into an *Error. Deadline errors become
// ErrUpstreamTimeout, everything else untyped becomes ErrInternal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Because(ErrUpstreamTimeout, err, "")
	}
	return Because(ErrInternal, err, "")
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

// Clonef is Clone with a formatted message.
func Clonef(err *Error, format string, args ...interface{}) *Error {
	return Clone(err, fmt.Sprintf(format, args...))
}
