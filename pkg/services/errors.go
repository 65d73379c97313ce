// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/flowbuilder/pkg/graph"
	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/dukex/flowbuilder/pkg/serializer"
	"github.com/dukex/flowbuilder/pkg/workflow"
)

var (
	// ErrWorkflowNotFound is returned when no editing session exists for an id (404).
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrInvalidRequest is returned for malformed service input (400).
	ErrInvalidRequest = errors.New("invalid request")
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
	if errors.Is(err, ErrInvalidRequest) {
		return true
	}

	return graph.IsStructuralError(err) && !graph.IsNotFound(err) && !graph.IsConflict(err)
}

// IsNotFoundError checks if an error refers to a missing session, node, connection or snapshot (404).
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		graph.IsNotFound(err) ||
		persistence.IsNotFound(err)
}

// IsConflictError checks if an error conflicts with the current graph shape (409).
func IsConflictError(err error) bool {
	return graph.IsConflict(err)
}

// IsUnprocessableError checks if an error comes from a payload or graph that cannot be processed (422).
func IsUnprocessableError(err error) bool {
	return serializer.IsSerializationError(err) || workflow.IsNotExecutable(err)
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

func workflowNotFound(op, id string) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    "WORKFLOW_NOT_FOUND",
		Message: fmt.Sprintf("workflow %s not found", id),
		Err:     ErrWorkflowNotFound,
	}
}
