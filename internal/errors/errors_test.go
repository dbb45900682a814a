package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("create: %w", Wrap(MutationFailure, "failed to save transaction", cause))

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, IsCode(err, MutationFailure))
	assert.False(t, IsCode(err, LoadFailure))

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus())
	assert.Contains(t, appErr.Error(), "connection refused")
}

func TestAppErrorFields(t *testing.T) {
	err := NewAppError(ValidationFailure, "invalid transaction").
		WithField("amount", "must be a number").
		WithField("productName", "required")

	assert.Len(t, err.Fields, 2)
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus())
	assert.Equal(t, "validation_failure: invalid transaction", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		NotFound:       http.StatusNotFound,
		InvalidInput:   http.StatusBadRequest,
		LoadFailure:    http.StatusBadGateway,
		RateLimited:    http.StatusTooManyRequests,
		InternalError:  http.StatusInternalServerError,
		ErrorCode("x"): http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, NewAppError(code, "m").HTTPStatus(), string(code))
	}
}

func TestIsCodeOnPlainError(t *testing.T) {
	assert.False(t, IsCode(stderrors.New("boom"), InternalError))
	assert.False(t, IsCode(nil, InternalError))
}
