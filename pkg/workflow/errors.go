package workflow

import (
	"errors"
	"fmt"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/validation"
)

// ErrNotExecutable is returned when a graph has validation issues.
var ErrNotExecutable = errors.New("workflow is not executable")

// NotExecutableError carries the validation result that blocked execution.
type NotExecutableError struct {
	Result validation.Result
}

func (e *NotExecutableError) Error() string {
	return fmt.Sprintf("%v: %s", ErrNotExecutable, e.Result.Summary())
}

func (e *NotExecutableError) Unwrap() error {
	return ErrNotExecutable
}

// StepError reports the step that made a run fail.
type StepError struct {
	NodeID string
	Kind   models.StepKind
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s (%s) failed: %v", e.NodeID, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// IsNotExecutable checks if an error was caused by validation issues.
func IsNotExecutable(err error) bool {
	return errors.Is(err, ErrNotExecutable)
}
