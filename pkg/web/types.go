// Package web provides HTTP request and response types for the workflow API.
package web

import (
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/registry"
	"github.com/dukex/flowbuilder/pkg/validation"
)

// AddNodeRequest represents the request body for dropping a step on the canvas.
type AddNodeRequest struct {
	Kind     string          `json:"kind"     validate:"required"`
	Position models.Position `json:"position"`
}

// UpdateNodeRequest represents the request body for updating a node.
// At least one of position or parameters must be present.
type UpdateNodeRequest struct {
	Position   *models.Position `json:"position,omitempty"   validate:"required_without=Parameters"`
	Parameters map[string]any   `json:"parameters,omitempty" validate:"required_without=Position"`
}

// ConnectRequest represents the request body for linking two nodes.
type ConnectRequest struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// ExecuteRequest represents the request body for running a workflow.
type ExecuteRequest struct {
	Input map[string]any `json:"input"`
}

// StepResponse describes a step kind for the palette.
type StepResponse struct {
	Kind           models.StepKind  `json:"kind"`
	Label          string           `json:"label"`
	Description    string           `json:"description"`
	Ports          models.PortShape `json:"ports"`
	Singleton      bool             `json:"singleton"`
	PaletteVisible bool             `json:"palette_visible"`
	Schema         map[string]any   `json:"schema,omitempty"`
}

// ValidationResponse represents the validation state of a workflow.
type ValidationResponse struct {
	Valid   bool               `json:"valid"`
	Summary string             `json:"summary,omitempty"`
	Issues  []validation.Issue `json:"issues"`
}

// TransformStepResponse transforms a registry definition into a StepResponse.
func TransformStepResponse(def registry.Definition) StepResponse {
	return StepResponse{
		Kind:           def.Kind,
		Label:          def.Label,
		Description:    def.Description,
		Ports:          def.Ports,
		Singleton:      def.Singleton,
		PaletteVisible: def.PaletteVisible(),
		Schema:         def.Schema,
	}
}

// TransformValidationResponse transforms a validation result into a ValidationResponse.
func TransformValidationResponse(result validation.Result) ValidationResponse {
	issues := result.Issues
	if issues == nil {
		issues = []validation.Issue{}
	}

	return ValidationResponse{
		Valid:   result.Valid(),
		Summary: result.Summary(),
		Issues:  issues,
	}
}
