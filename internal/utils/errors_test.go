package utils

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatusCode(t *testing.T) {
	cases := map[int]int{
		ErrCodeInvalidInput:       http.StatusBadRequest,
		ErrCodeValidationFailed:   http.StatusBadRequest,
		ErrCodeUnauthorized:       http.StatusUnauthorized,
		ErrCodeForbidden:          http.StatusForbidden,
		ErrCodeNotFound:           http.StatusNotFound,
		ErrCodeAlreadyExists:      http.StatusConflict,
		ErrCodeConflict:           http.StatusConflict,
		ErrCodeTooManyRequests:    http.StatusTooManyRequests,
		ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
		ErrCodeInternalError:      http.StatusInternalServerError,
		9999:                      http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, GetHTTPStatusCode(code), "code %d", code)
	}
}

func TestErrorCodeNames(t *testing.T) {
	assert.Equal(t, "VALIDATION_ERROR", ErrorCode(NewError(ErrCodeValidationFailed, "bad")))
	assert.Equal(t, "RESOURCE_CONFLICT", ErrorCode(NewError(ErrCodeAlreadyExists, "dup")))
	assert.Equal(t, "RATE_LIMITED", ErrorCode(NewError(ErrCodeTooManyRequests, "slow down")))
	assert.Equal(t, "INTERNAL_ERROR", ErrorCode(NewError(ErrCodeInternalError, "boom")))
}

func TestExternalServiceErrorCarriesServiceTag(t *testing.T) {
	e := NewExternalServiceError("vault", "read failed", errors.New("permission denied"))
	assert.Equal(t, ErrCodeServiceUnavailable, e.Code)
	assert.Equal(t, "EXTERNAL_SERVICE_ERROR_VAULT", ErrorCode(e))
	assert.Contains(t, e.Error(), "permission denied")
}

func TestWrapErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	wrapped := WrapError(ErrCodeInternalError, "query failed", cause)

	require.True(t, errors.Is(wrapped, cause))

	var appErr *Error
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrCodeInternalError, appErr.Code)
}
