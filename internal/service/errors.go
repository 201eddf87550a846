package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// Common service errors. The API layer maps these with errors.Is.
var (
	// ErrForbidden indicates the caller may not perform the operation on the
	// resource, e.g. a member updating a task they are not assigned to.
	// API layer should map this to HTTP 403 Forbidden.
	ErrForbidden = errors.New("operation not permitted")

	// ErrNotConnected indicates a direct push targeted a user with no live
	// channel. Callers treat it as a soft failure.
	ErrNotConnected = errors.New("user is not connected")
)

// ServiceError records which service operation failed while keeping the
// underlying error reachable through errors.Is/errors.As.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

func newTaskError(operation, message string, err error) *ServiceError {
	return &ServiceError{Service: "task", Operation: operation, Message: message, Err: err}
}

func newNotificationError(operation, message string, err error) *ServiceError {
	return &ServiceError{Service: "notification", Operation: operation, Message: message, Err: err}
}

// isClientError reports whether err stems from the request itself rather
// than from the system, so it is not logged as a failure.
func isClientError(err error) bool {
	return errors.Is(err, domain.ErrValidation) || errors.Is(err, ErrForbidden)
}
