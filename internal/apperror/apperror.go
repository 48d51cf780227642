// Package apperror defines the domain error taxonomy shared by every layer.
//
// Services return these errors; the HTTP layer translates them to status
// codes with errors.Is, never the other way around. Each sentinel marks a
// distinct caller action: fix the input (validation), pick another target
// (not found / forbidden), wait for ride state to change (state conflict /
// capacity), or retry the same call (concurrency).
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrCapacity      = errors.New("capacity exceeded")
	ErrStateConflict = errors.New("state conflict")
	ErrUnauthorized  = errors.New("unauthorized")

	// ErrConcurrency is the only retryable kind: two requests raced on the
	// same ride and the loser should simply try again.
	ErrConcurrency = errors.New("concurrency conflict")
)

type AppError struct {
	Err     error  // sentinel identifying the error kind
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized reports a failed authentication attempt (bad credentials or
// a missing/invalid token). HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// CapacityExceeded reports that a seat change would overrun the assigned
// driver's vehicle capacity.
func CapacityExceeded(message string) *AppError {
	return &AppError{
		Err:     ErrCapacity,
		Message: message,
	}
}

// StateConflict reports an operation that is invalid for the ride's current
// status or assignment status, e.g. starting a completed ride.
func StateConflict(message string) *AppError {
	return &AppError{
		Err:     ErrStateConflict,
		Message: message,
	}
}

// ConcurrencyConflict reports a race lost to a concurrent request.
// The caller may retry the same operation unchanged.
func ConcurrencyConflict(message string) *AppError {
	return &AppError{
		Err:     ErrConcurrency,
		Message: message,
	}
}
