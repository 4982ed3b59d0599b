package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the financial core. Controllers map these onto HTTP
// statuses; services return them unwrapped so callers can use errors.Is.
var (
	ErrInsufficientFunds  = errors.New("insufficient wallet balance")
	ErrInsufficientPoints = errors.New("insufficient points balance")
	ErrAlreadyClaimed     = errors.New("daily login bonus already claimed")
	ErrDuplicateReference = errors.New("duplicate transaction reference")
	ErrInvalidCode        = errors.New("invalid referral code")
	ErrSelfReferral       = errors.New("cannot refer yourself")
	ErrInvalidStatus      = errors.New("invalid status transition")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrOrderNotFound      = errors.New("order not found")
)

// AppError represents an application error
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// BadRequestError creates a 400 Bad Request error
func BadRequestError(message string, err error) *AppError {
	return NewAppError(http.StatusBadRequest, message, err)
}

// NotFoundError creates a 404 Not Found error
func NotFoundError(message string, err error) *AppError {
	return NewAppError(http.StatusNotFound, message, err)
}

// ConflictError creates a 409 Conflict error
func ConflictError(message string, err error) *AppError {
	return NewAppError(http.StatusConflict, message, err)
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
