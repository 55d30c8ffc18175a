package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := ErrInternal("").Wrap(cause)

	assert.Equal(t, "INTERNAL_ERROR: an internal error occurred: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
}

func TestAppError_WithDetail(t *testing.T) {
	err := ErrNotFoundWithID("request", "req-1").WithDetail("companyId", "co-1")

	assert.Equal(t, CodeNotFound, err.Code)
	assert.Equal(t, "request not found", err.Message)
	assert.Equal(t, map[string]string{"id": "req-1", "companyId": "co-1"}, err.Details)
}

func TestAsAppError_WrappedChain(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrConflict("taken"))

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeConflict, appErr.Code)

	_, ok = AsAppError(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	plain := stderrors.New("disk on fire")
	appErr := FromError(plain)
	assert.Equal(t, CodeInternalError, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
	assert.ErrorIs(t, appErr, plain)

	conflict := ErrConflict("taken")
	assert.Same(t, conflict, FromError(fmt.Errorf("save: %w", conflict)))
}

func TestDefaultMessages(t *testing.T) {
	assert.Equal(t, "authentication required", ErrUnauthorized("").Message)
	assert.Equal(t, "access denied", ErrForbidden("").Message)
	assert.Equal(t, "no capability", ErrForbidden("no capability").Message)
	assert.Equal(t, "directory is temporarily unavailable", ErrServiceUnavailable("directory").Message)
	assert.Equal(t, http.StatusGatewayTimeout, ErrTimeout("lookup").HTTPStatus)
}
