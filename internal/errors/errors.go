package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrCode represents an error classification token
type ErrCode string

const (
	ErrCodeNetworkUnavailable ErrCode = "NETWORK_UNAVAILABLE"
	ErrCodeTimeout            ErrCode = "TIMEOUT"
	ErrCodeInvalidRequest     ErrCode = "INVALID_REQUEST"
	ErrCodeUnauthorized       ErrCode = "UNAUTHORIZED"
	ErrCodeNotFound           ErrCode = "NOT_FOUND"
	ErrCodeRateLimited        ErrCode = "RATE_LIMITED"
	ErrCodeServiceUnavailable ErrCode = "SERVICE_UNAVAILABLE"
	ErrCodeGeneric            ErrCode = "GENERIC"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an error with the given code
func New(code ErrCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewInvalidRequestError creates a new invalid request error
func NewInvalidRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidRequest,
		Message: message,
	}
}

// NewGenericError creates a catch-all error
func NewGenericError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeGeneric,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the code carried by err, or ErrCodeGeneric
func CodeOf(err error) ErrCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeGeneric
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeNotFound
}

// IsRateLimited checks if the error is a rate limited error
func IsRateLimited(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeRateLimited
}

// FromStatus classifies a non-2xx HTTP status code
func FromStatus(status int) ErrCode {
	switch status {
	case http.StatusBadRequest, http.StatusRequestURITooLong, http.StatusUnprocessableEntity:
		return ErrCodeInvalidRequest
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden, http.StatusTooManyRequests:
		// GitHub answers 403 when the search quota is exhausted
		return ErrCodeRateLimited
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrCodeTimeout
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return ErrCodeServiceUnavailable
	default:
		return ErrCodeGeneric
	}
}

// HTTPStatus maps a code back to the status the local API answers with
func HTTPStatus(code ErrCode) int {
	switch code {
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeNetworkUnavailable:
		return http.StatusBadGateway
	case ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether re-invoking the same operation can succeed
func Retryable(code ErrCode) bool {
	switch code {
	case ErrCodeInvalidRequest, ErrCodeUnauthorized:
		return false
	default:
		return true
	}
}
