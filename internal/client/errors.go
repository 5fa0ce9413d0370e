package client

import (
	"fmt"
)

// ErrorPayload is the error body the platform API returns on failures.
// Older endpoints use "erro", newer ones "message".
type ErrorPayload struct {
	Message string `json:"message"`
	Erro    string `json:"erro"`
}

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	Method  string
	Path    string
	Status  int
	Payload ErrorPayload
	Body    []byte
}

func (e *HTTPError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, msg)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// Message returns the server supplied message, preferring "message" over "erro".
func (e *HTTPError) Message() string {
	if e.Payload.Message != "" {
		return e.Payload.Message
	}
	return e.Payload.Erro
}

// Unauthorized reports 401 and 403 responses.
func (e *HTTPError) Unauthorized() bool {
	return e.Status == 401 || e.Status == 403
}

// TransportError wraps failures that happened before a response was read.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means a 2xx response carried a body that did not match the expected shape.
type DecodeError struct {
	Method string
	Path   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s %s: decode response: %v", e.Method, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
