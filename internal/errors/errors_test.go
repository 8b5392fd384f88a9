package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := Unauthenticated("login first")

	assert.True(t, Is(err, ErrUnauthenticated))
	assert.False(t, Is(err, ErrInvalidCredentials))

	wrapped := fmt.Errorf("resolver: %w", err)
	assert.True(t, Is(wrapped, ErrUnauthenticated))
}

func TestError_MessageHidesCause(t *testing.T) {
	cause := New("badger: disk full at /var/lib/catalog")
	err := WriteFailed("saving book failed").WithCause(cause)

	assert.Equal(t, "saving book failed", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Cause())
}

func TestError_Extensions(t *testing.T) {
	err := ValidationWithDetails("invalid input", map[string]string{"title": "required"})

	ext := err.Extensions()
	assert.Equal(t, "BAD_USER_INPUT", ext["code"])
	assert.Equal(t, map[string]string{"title": "required"}, ext["details"])

	_, hasDetails := Unauthenticated("nope").Extensions()["details"]
	assert.False(t, hasDetails)
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeInvalidToken, http.StatusUnauthorized},
		{CodeValidation, http.StatusBadRequest},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeNotFound, http.StatusNotFound},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeWriteFailed, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestClassify(t *testing.T) {
	classified, ok := Classify(fmt.Errorf("ctx: %w", NotFound("no such author")))
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, classified.Code)

	plain := New("boom")
	opaque, ok := Classify(plain)
	require.False(t, ok)
	assert.Equal(t, CodeInternal, opaque.Code)
	assert.Equal(t, "internal server error", opaque.Error())
	assert.ErrorIs(t, opaque, plain)
}
