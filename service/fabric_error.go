package service

import (
	"errors"
	"fmt"
)

const (
	// ErrInternalServerError means that an internal server error has occurred.
	ErrInternalServerError = "internal_server_error"
	// ErrEntityNotFound means that record is absent in the registry storage.
	ErrEntityNotFound = "entity_not_found"
	// ErrBadParameter means that provided parameter does not match declared.
	ErrBadParameter = "bad_parameter"
	// ErrServiceNotFound means that no instance of the requested service is registered.
	ErrServiceNotFound = "service_not_found"
	// ErrServiceUnavailable means that every instance is open or failed after retries.
	ErrServiceUnavailable = "service_unavailable"
	// ErrSagaFailed means that a saga forward step failed; compensation has been attempted.
	ErrSagaFailed = "saga_failed"
	// ErrTooBusy means that the gateway is at its concurrent request limit.
	ErrTooBusy = "too_busy"
	// ErrTooManyRequests means that the gateway rate limit was exceeded.
	ErrTooManyRequests = "too_many_requests"
)

// FabricError is the error type shared by the registry and the gateway.
type FabricError struct {
	// Code is a machine-readable code.
	Code string `json:"code,omitempty"`
	// Message is a human-readable message.
	Message string `json:"message"`
	// Inner is a wrapped error that is never shown to API consumers.
	Inner error `json:"-"`
}

// NewFabricError creates a new FabricError.
func NewFabricError(code string, message string, inner error) *FabricError {
	return &FabricError{
		Code:    code,
		Message: message,
		Inner:   inner,
	}
}

// newWithCode keeps an already classified inner error instead of hiding it behind a new code.
func newWithCode(code, message string, inner error) *FabricError {
	if fabricInner := ToFabricError(inner); fabricInner != nil {
		return fabricInner
	}
	return NewFabricError(code, message, inner)
}

func NewInternalServerError(message string, inner error) *FabricError {
	return newWithCode(ErrInternalServerError, message, inner)
}

func NewEntityNotFoundError(message string, inner error) *FabricError {
	return newWithCode(ErrEntityNotFound, message, inner)
}

func NewBadParameterError(message string, inner error) *FabricError {
	return newWithCode(ErrBadParameter, message, inner)
}

// NewServiceNotFoundError and the constructors below always use their own code: the cause is an
// internal detail (registry miss, breaker state) that callers must not see.
func NewServiceNotFoundError(message string, inner error) *FabricError {
	return NewFabricError(ErrServiceNotFound, message, inner)
}

func NewServiceUnavailableError(message string, inner error) *FabricError {
	return NewFabricError(ErrServiceUnavailable, message, inner)
}

func NewSagaFailedError(message string, inner error) *FabricError {
	return NewFabricError(ErrSagaFailed, message, inner)
}

func (e FabricError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s %s: %v", e.Code, e.Message, e.Inner)
	}

	return fmt.Sprintf("%s %s", e.Code, e.Message)
}

// Unwrap the error returning the error's reason.
func (e FabricError) Unwrap() error {
	return e.Inner
}

// ToFabricError returns a pointer to a fabric error, or nil if it is not a fabric error.
func ToFabricError(err error) *FabricError {
	var e *FabricError
	if errors.As(err, &e) {
		return e
	}

	return nil
}

// ToFabricErrorCode returns the code of the error, if available.
func ToFabricErrorCode(err error) string {
	if fe := ToFabricError(err); fe != nil {
		return fe.Code
	}
	return ""
}

func IsFabricError(err error, code string) bool {
	return ToFabricErrorCode(err) == code && code != ""
}

func IsInternalServerError(err error) bool {
	return IsFabricError(err, ErrInternalServerError)
}

func IsEntityNotFoundError(err error) bool {
	return IsFabricError(err, ErrEntityNotFound)
}

func IsBadParameterError(err error) bool {
	return IsFabricError(err, ErrBadParameter)
}

func IsServiceNotFoundError(err error) bool {
	return IsFabricError(err, ErrServiceNotFound)
}

func IsServiceUnavailableError(err error) bool {
	return IsFabricError(err, ErrServiceUnavailable)
}

func IsSagaFailedError(err error) bool {
	return IsFabricError(err, ErrSagaFailed)
}
