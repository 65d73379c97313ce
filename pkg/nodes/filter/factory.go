// Package filter provides the filter-data step factory for registry integration.
package filter

import (
	"context"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/protocol"
)

// FilterNodeFactory creates FilterNode instances.
type FilterNodeFactory struct{}

// Create creates a new FilterNode instance.
func (f *FilterNodeFactory) Create(_ context.Context, id string, params map[string]any) (protocol.Step, error) {
	return NewFilterNode(id, params)
}

// Kind returns the step kind.
func (f *FilterNodeFactory) Kind() models.StepKind {
	return models.StepKindFilterData
}

// Name returns the factory name.
func (f *FilterNodeFactory) Name() string {
	return "Filter Data"
}

// Description returns the factory description.
func (f *FilterNodeFactory) Description() string {
	return "Keeps only the records of the incoming payload whose field matches a condition"
}

// Schema returns the JSON schema for Filter Data step parameters.
func (f *FilterNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"field": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Dotted path of the record field to test",
				"examples":    []string{"status", "customer.country"},
			},
			"operator": map[string]any{
				"type":        "string",
				"enum":        []string{"eq", "ne", "contains", "exists", "gt", "lt"},
				"default":     "eq",
				"description": "Comparison applied to the field",
			},
			"value": map[string]any{
				"description": "Value the field is compared against (ignored by 'exists')",
			},
			"items_field": map[string]any{
				"type":        "string",
				"default":     DefaultItemsField,
				"description": "Payload field holding the list of records",
			},
		},
		"required": []string{"field"},
		"examples": []map[string]any{
			{"field": "status", "operator": "eq", "value": "active"},
			{"field": "amount", "operator": "gt", "value": 100},
		},
	}
}

// NewFilterNodeFactory creates a new factory instance.
func NewFilterNodeFactory() protocol.StepFactory {
	return &FilterNodeFactory{}
}
