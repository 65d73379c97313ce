// Package convert provides the convert-format step factory for registry integration.
package convert

import (
	"context"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/protocol"
)

// ConvertNodeFactory creates ConvertNode instances.
type ConvertNodeFactory struct{}

// Create creates a new ConvertNode instance.
func (f *ConvertNodeFactory) Create(_ context.Context, id string, params map[string]any) (protocol.Step, error) {
	return NewConvertNode(id, params)
}

// Kind returns the step kind.
func (f *ConvertNodeFactory) Kind() models.StepKind {
	return models.StepKindConvertFormat
}

// Name returns the factory name.
func (f *ConvertNodeFactory) Name() string {
	return "Convert Format"
}

// Description returns the factory description.
func (f *ConvertNodeFactory) Description() string {
	return "Renders the incoming payload, or one of its fields, as JSON, YAML or CSV text"
}

// Schema returns the JSON schema for Convert Format step parameters.
func (f *ConvertNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to": map[string]any{
				"type":        "string",
				"enum":        []string{string(FormatJSON), string(FormatYAML), string(FormatCSV)},
				"description": "Target text format",
			},
			"field": map[string]any{
				"type":        "string",
				"description": "Payload field to convert instead of the whole payload",
				"examples":    []string{"items"},
			},
		},
		"required": []string{"to"},
		"examples": []map[string]any{
			{"to": "yaml"},
			{"to": "csv", "field": "items"},
		},
	}
}

// NewConvertNodeFactory creates a new factory instance.
func NewConvertNodeFactory() protocol.StepFactory {
	return &ConvertNodeFactory{}
}
