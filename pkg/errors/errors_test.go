package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_MessageIncludesCause(t *testing.T) {
	err := NewStorageError("failed to append session", io.ErrUnexpectedEOF)

	assert.Equal(t, "STORAGE: failed to append session: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestTypeOf_UnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("chat: %w", NewExternalError("upstream unavailable", io.EOF))

	assert.Equal(t, ErrorTypeExternal, TypeOf(wrapped))
	assert.True(t, IsType(wrapped, ErrorTypeExternal))
	assert.False(t, IsType(wrapped, ErrorTypeStorage))
	assert.Equal(t, ErrorTypeInternal, TypeOf(io.EOF))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		NewValidationError("bad score"):        http.StatusBadRequest,
		NewNotFoundError("no such table"):      http.StatusNotFound,
		NewUnauthorizedError("bad password"):   http.StatusUnauthorized,
		NewExternalError("upstream", nil):      http.StatusBadGateway,
		NewStorageError("disk", nil):           http.StatusServiceUnavailable,
		NewConflictError("dup"):                http.StatusConflict,
		io.EOF:                                 http.StatusInternalServerError,
		NewInternalError("render failed", nil): http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "bad score", PublicMessage(NewValidationError("bad score")))
	assert.Equal(t, "internal error", PublicMessage(io.EOF))
}
