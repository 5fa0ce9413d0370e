package store

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Alexseyf/elo-escola/internal/client"
)

type failureKind int

const (
	failureNone failureKind = iota
	failureUnauthorized
	failureNotFound
	failureHTTP
	failureTransport
)

// Outcome labels reported to the metrics recorder.
const (
	OutcomeSuccess      = "success"
	OutcomeUnauthorized = "unauthorized"
	OutcomeNotFound     = "not_found"
	OutcomeHTTPError    = "http_error"
	OutcomeTransport    = "transport_error"
)

type failure struct {
	kind failureKind
	http *client.HTTPError
	err  error
}

func classify(err error) failure {
	if err == nil {
		return failure{kind: failureNone}
	}

	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.Unauthorized():
			return failure{kind: failureUnauthorized, http: httpErr, err: err}
		case httpErr.Status == http.StatusNotFound:
			return failure{kind: failureNotFound, http: httpErr, err: err}
		default:
			return failure{kind: failureHTTP, http: httpErr, err: err}
		}
	}

	// Transport, decode and request-building errors are all treated alike.
	return failure{kind: failureTransport, err: err}
}

func (f failure) outcome() string {
	switch f.kind {
	case failureNone:
		return OutcomeSuccess
	case failureUnauthorized:
		return OutcomeUnauthorized
	case failureNotFound:
		return OutcomeNotFound
	case failureHTTP:
		return OutcomeHTTPError
	default:
		return OutcomeTransport
	}
}

func (f failure) status() int {
	if f.http == nil {
		return 0
	}
	return f.http.Status
}

// listMessage is the visible error for read failures: the server message when
// present, else a generic status line. 404 is a plain HTTP failure for lists.
func (f failure) listMessage() string {
	if f.http != nil {
		if msg := f.http.Message(); msg != "" {
			return msg
		}
		return fmt.Sprintf("HTTP error! status: %d", f.http.Status)
	}
	return f.err.Error()
}
