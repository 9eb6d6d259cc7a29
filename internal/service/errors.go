// Package service provides application-level services for managing
// marketplaces, routines, tasks, and users.
package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is(); the API layer maps them to HTTP
// status codes.
var (
	// ErrInvalidCredentials indicates a login attempt with an unknown user
	// or a wrong password. Mapped to HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountDisabled indicates a login attempt against a deactivated
	// account. Mapped to HTTP 401.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrForbidden indicates the acting user lacks permission for the
	// operation. Mapped to HTTP 403.
	ErrForbidden = errors.New("operation not permitted")

	// ErrSelfDeletion indicates a user attempted to delete their own
	// account. Mapped to HTTP 400 like other conflicts.
	ErrSelfDeletion = errors.New("users cannot delete their own account")
)

// ServiceError is a custom error type carrying the failing service,
// operation, and a caller-safe message.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation, message string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
