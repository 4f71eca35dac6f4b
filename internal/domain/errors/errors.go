package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrBadRequest    = errors.New("bad request")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrNotSupported  = errors.New("operation not supported by adapter")

	// Routing errors
	ErrNoClearingSystemFound                = errors.New("no clearing system found")
	ErrClearingSystemInactive               = errors.New("clearing system inactive")
	ErrTenantNotAuthorizedForClearingSystem = errors.New("tenant not authorized for clearing system")

	// Resiliency envelope errors
	ErrCircuitOpen           = errors.New("circuit breaker open")
	ErrRateLimited           = errors.New("rate limit exceeded")
	ErrBulkheadFull          = errors.New("bulkhead at capacity")
	ErrTimedOut              = errors.New("operation timed out")
	ErrDownstreamUnavailable = errors.New("downstream unavailable")

	// Business errors from the core banking system; never retried
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountClosed     = errors.New("account closed")
	ErrAccountNotFound   = errors.New("account not found")
	ErrBusinessRejected  = errors.New("rejected by core banking")

	// Repair errors
	ErrConflictingRepair = errors.New("conflicting repair mutation")
	ErrRepairTerminal    = errors.New("repair in terminal state")
)

// IsTransient reports whether an error should be recovered by the resiliency
// envelope (retry / queue for replay) rather than surfaced or repaired.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimedOut) ||
		errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrBulkheadFull) ||
		errors.Is(err, ErrDownstreamUnavailable)
}

// IsBusiness reports whether an error is a business rejection from the core
// banking system. Business errors go to transaction repair, never to retry.
func IsBusiness(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrAccountClosed) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrBusinessRejected)
}

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, "ERR_NOT_FOUND", message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, "ERR_VALIDATION", message, ErrInvalidInput)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, "ERR_CONFLICT", message, ErrConflict)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, "ERR_UNAUTHORIZED", message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, "ERR_FORBIDDEN", message, ErrForbidden)
}

func ServiceUnavailable(message string, err error) *AppError {
	return NewAppError(http.StatusServiceUnavailable, "ERR_DOWNSTREAM_UNAVAILABLE", message, err)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "ERR_INTERNAL", "internal server error", err)
}
