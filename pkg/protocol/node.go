// Package protocol defines the interfaces and contracts for pluggable steps.
package protocol

import (
	"context"

	"github.com/dukex/flowbuilder/pkg/models"
)

// Step is an executable instance of a workflow step.
type Step interface {
	// ID returns the id of the graph node this step was created for
	ID() string

	// Kind returns the step kind
	Kind() models.StepKind

	// Execute consumes the output of the single predecessor and produces this step's output
	Execute(ctx context.Context, input map[string]any) (map[string]any, error)
}

// StepFactory creates step instances and provides metadata about the step kind.
type StepFactory interface {
	// Create creates a new step instance with the given parameters
	Create(ctx context.Context, id string, params map[string]any) (Step, error)

	// Kind returns the step kind this factory creates
	Kind() models.StepKind

	// Name returns the human-readable name for this step kind
	Name() string

	// Description returns a description of what this step does
	Description() string

	// Schema returns the JSON schema for configuring this step
	Schema() map[string]any
}
