package graph

import (
	"errors"
	"fmt"

	"github.com/dukex/flowbuilder/pkg/models"
)

// Structural errors. Each is raised by a Builder operation and always means
// the caller supplied an invalid id, kind or combination; the graph is left
// untouched.
var (
	ErrNodeNotFound       = errors.New("node not found")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrProtectedNode      = errors.New("node cannot be removed")
	ErrDuplicateSingleton = errors.New("step kind allows a single node per graph")
	ErrPortMismatch       = errors.New("port mismatch")
	ErrSelfLoop           = errors.New("node cannot connect to itself")
	ErrFanInViolation     = errors.New("input port already has a connection")
	ErrInvalidKind        = errors.New("invalid step kind")
	ErrInvalidPosition    = errors.New("position must be finite")
	ErrInvalidParameters  = errors.New("parameters must be representable as JSON")

	// Restore errors.
	ErrMissingSingleton = errors.New("graph is missing a required step kind")
	ErrDuplicateID      = errors.New("duplicate identifier")

	// ErrIDExhausted is returned when the id generator keeps producing ids already used by the graph.
	ErrIDExhausted = errors.New("id generator produced only colliding ids")
)

// Error codes for API responses.
const (
	CodeNodeNotFound       = "NODE_NOT_FOUND"
	CodeConnectionNotFound = "CONNECTION_NOT_FOUND"
	CodeProtectedNode      = "PROTECTED_NODE"
	CodeDuplicateSingleton = "DUPLICATE_SINGLETON"
	CodePortMismatch       = "PORT_MISMATCH"
	CodeSelfLoop           = "SELF_LOOP"
	CodeFanInViolation     = "FAN_IN_VIOLATION"
	CodeInvalidKind        = "INVALID_KIND"
	CodeInvalidPosition    = "INVALID_POSITION"
	CodeInvalidParameters  = "INVALID_PARAMETERS"
	CodeMissingSingleton   = "MISSING_SINGLETON"
	CodeDuplicateID        = "DUPLICATE_ID"
	CodeIDExhausted        = "ID_EXHAUSTED"
)

// StructuralError wraps a structural error with the operation and ids involved.
type StructuralError struct {
	Op           string // Operation name
	Code         string // Error code for API responses
	NodeID       string // Node involved, if any
	ConnectionID string // Connection involved, if any
	Message      string // Human-readable message
	Err          error  // Underlying error
}

func (e *StructuralError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

func (e *StructuralError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsStructuralError checks if an error was raised by a graph mutation.
func IsStructuralError(err error) bool {
	var structural *StructuralError

	return errors.As(err, &structural)
}

// IsNotFound checks if an error refers to a missing node or connection.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound) || errors.Is(err, ErrConnectionNotFound)
}

// IsConflict checks if an error is caused by the current graph shape rather than the input alone.
func IsConflict(err error) bool {
	return errors.Is(err, ErrFanInViolation) ||
		errors.Is(err, ErrDuplicateSingleton) ||
		errors.Is(err, ErrProtectedNode)
}

func nodeNotFound(op, nodeID string) *StructuralError {
	return &StructuralError{
		Op:      op,
		Code:    CodeNodeNotFound,
		NodeID:  nodeID,
		Message: fmt.Sprintf("node %s not found", nodeID),
		Err:     ErrNodeNotFound,
	}
}

func invalidPosition(op, nodeID string, pos models.Position) *StructuralError {
	return &StructuralError{
		Op:      op,
		Code:    CodeInvalidPosition,
		NodeID:  nodeID,
		Message: fmt.Sprintf("position (%v, %v) is not finite", pos.X, pos.Y),
		Err:     ErrInvalidPosition,
	}
}

func invalidParameters(op, nodeID string, err error) *StructuralError {
	return &StructuralError{
		Op:      op,
		Code:    CodeInvalidParameters,
		NodeID:  nodeID,
		Message: fmt.Sprintf("parameters of node %s cannot be encoded: %v", nodeID, err),
		Err:     ErrInvalidParameters,
	}
}
