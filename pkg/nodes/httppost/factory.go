// Package httppost provides the send-POST-request step factory for registry integration.
package httppost

import (
	"context"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/protocol"
)

// PostNodeFactory creates PostNode instances.
type PostNodeFactory struct{}

// Create creates a new PostNode instance.
func (f *PostNodeFactory) Create(_ context.Context, id string, params map[string]any) (protocol.Step, error) {
	return NewPostNode(id, params)
}

// Kind returns the step kind.
func (f *PostNodeFactory) Kind() models.StepKind {
	return models.StepKindSendPostRequest
}

// Name returns the factory name.
func (f *PostNodeFactory) Name() string {
	return "Send POST Request"
}

// Description returns the factory description.
func (f *PostNodeFactory) Description() string {
	return "Sends the incoming payload as a JSON body in an HTTP POST request"
}

// Schema returns the JSON schema for Send POST Request step parameters.
func (f *PostNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"format":      "uri",
				"description": "Request URL",
				"examples":    []string{"https://api.example.com/orders"},
			},
			"headers": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
				"description":          "Extra request headers",
			},
			"timeout": map[string]any{
				"type":        "number",
				"minimum":     1,
				"default":     DefaultTimeoutSeconds,
				"description": "Request timeout in seconds",
			},
		},
		"required": []string{"url"},
		"examples": []map[string]any{
			{"url": "https://hooks.example.com/ingest", "headers": map[string]any{"Authorization": "Bearer token"}},
		},
	}
}

// NewPostNodeFactory creates a new factory instance.
func NewPostNodeFactory() protocol.StepFactory {
	return &PostNodeFactory{}
}
