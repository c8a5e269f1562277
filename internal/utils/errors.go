package utils

import (
	"fmt"
	"net/http"
	"strings"
)

type Error struct {
	Code    int
	Message string
	Service string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error %d: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("error %d: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func WrapError(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewExternalServiceError tags the failure with the collaborator that caused
// it ("inventory", "vault"), so the error code surfaced to clients carries
// the service name.
func NewExternalServiceError(service, message string, err error) *Error {
	return &Error{
		Code:    ErrCodeServiceUnavailable,
		Message: message,
		Service: service,
		Err:     err,
	}
}

const (
	ErrCodeInvalidInput       = 1001
	ErrCodeNotFound           = 1002
	ErrCodeAlreadyExists      = 1003
	ErrCodeInternalError      = 1004
	ErrCodeValidationFailed   = 1005
	ErrCodeUnauthorized       = 1006
	ErrCodeForbidden          = 1007
	ErrCodeConflict           = 1008
	ErrCodeTooManyRequests    = 1009
	ErrCodeServiceUnavailable = 1010
)

var (
	ErrInvalidInput     = NewError(ErrCodeInvalidInput, "invalid input")
	ErrNotFound         = NewError(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists    = NewError(ErrCodeAlreadyExists, "resource already exists")
	ErrInternalError    = NewError(ErrCodeInternalError, "internal server error")
	ErrValidationFailed = NewError(ErrCodeValidationFailed, "validation failed")
	ErrUnauthorized     = NewError(ErrCodeUnauthorized, "unauthorized")
)

func GetHTTPStatusCode(code int) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists, ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode renders the machine-readable code for a response body, e.g.
// VALIDATION_ERROR or EXTERNAL_SERVICE_ERROR_VAULT.
func ErrorCode(e *Error) string {
	var name string
	switch e.Code {
	case ErrCodeInvalidInput, ErrCodeValidationFailed:
		name = "VALIDATION_ERROR"
	case ErrCodeUnauthorized:
		name = "AUTHENTICATION_ERROR"
	case ErrCodeForbidden:
		name = "AUTHORIZATION_ERROR"
	case ErrCodeNotFound:
		name = "RESOURCE_NOT_FOUND"
	case ErrCodeAlreadyExists, ErrCodeConflict:
		name = "RESOURCE_CONFLICT"
	case ErrCodeTooManyRequests:
		name = "RATE_LIMITED"
	case ErrCodeServiceUnavailable:
		name = "EXTERNAL_SERVICE_ERROR"
	default:
		name = "INTERNAL_ERROR"
	}
	if e.Service != "" {
		name = name + "_" + strings.ToUpper(e.Service)
	}
	return name
}
