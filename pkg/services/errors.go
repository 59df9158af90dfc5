// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest   = errors.New("invalid request")
	ErrWorkflowNil      = errors.New("workflow cannot be nil")
	ErrWorkflowInvalid  = errors.New("workflow definition is invalid")
	ErrEmptyOwnerID     = errors.New("owner ID cannot be empty")
	ErrInvalidStatus    = errors.New("invalid workflow status")
	ErrInvalidCategory  = errors.New("invalid workflow category")
	ErrEmptyDescription = errors.New("description cannot be empty")

	// Business logic conflicts (409 Conflict).
	ErrWorkflowNotExecutable = errors.New("workflow is not active and cannot be executed")
	ErrWorkflowAlreadyActive = errors.New("workflow is already active")
	ErrConcurrentUpdate      = errors.New("workflow was modified concurrently, retry with the latest version")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrWorkflowInvalid) ||
		errors.Is(err, ErrEmptyOwnerID) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidCategory) ||
		errors.Is(err, ErrEmptyDescription)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrWorkflowNotExecutable) ||
		errors.Is(err, ErrWorkflowAlreadyActive) ||
		errors.Is(err, ErrConcurrentUpdate)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
