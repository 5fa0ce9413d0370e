package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := Wrap(errors.New("boom"), ErrUpstream.Code, ErrUpstream.Status, "db down")

	got := FromError(wrapped)

	assert.Same(t, wrapped, got)
	assert.Equal(t, http.StatusBadGateway, got.Status)
	assert.Equal(t, "db down: boom", got.Error())
	assert.EqualError(t, errors.Unwrap(got), "boom")
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	got := FromError(errors.New("unexpected"))

	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Nil(t, FromError(nil))
}

func TestCloneOverridesMessageOnly(t *testing.T) {
	clone := Clone(ErrNotFound, "student not found")

	assert.Equal(t, "student not found", clone.Message)
	assert.Equal(t, ErrNotFound.Code, clone.Code)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestFromErrorMapsDeadline(t *testing.T) {
	got := FromError(fmt.Errorf("fetch: %w", context.DeadlineExceeded))

	assert.Equal(t, ErrUpstreamTimeout.Code, got.Code)
	assert.Equal(t, http.StatusGatewayTimeout, got.Status)
	assert.ErrorIs(t, got, context.DeadlineExceeded)
}

func TestBecauseKeepsSentinelUntouched(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	got := Because(ErrNotReady, cause, "cache unavailable")

	assert.Equal(t, "NOT_READY", got.Code)
	assert.Equal(t, "cache unavailable: dial tcp: connection refused", got.Error())
	assert.Nil(t, ErrNotReady.Err)
	assert.Equal(t, "classroomId must be a positive integer", Clonef(ErrValidation, "%s must be a positive integer", "classroomId").Message)
}
