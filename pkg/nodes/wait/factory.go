// Package wait provides the wait step factory for registry integration.
package wait

import (
	"context"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/protocol"
)

// WaitNodeFactory creates WaitNode instances.
type WaitNodeFactory struct{}

// Create creates a new WaitNode instance.
func (f *WaitNodeFactory) Create(_ context.Context, id string, params map[string]any) (protocol.Step, error) {
	return NewWaitNode(id, params)
}

// Kind returns the step kind.
func (f *WaitNodeFactory) Kind() models.StepKind {
	return models.StepKindWait
}

// Name returns the factory name.
func (f *WaitNodeFactory) Name() string {
	return "Wait"
}

// Description returns the factory description.
func (f *WaitNodeFactory) Description() string {
	return "Pauses the workflow for a fixed duration or until the next activation of a cron schedule, then passes the payload through"
}

// Schema returns the JSON schema for Wait step parameters.
func (f *WaitNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration": map[string]any{
				"type":        "string",
				"description": "Go duration to wait for",
				"examples":    []string{"500ms", "10s", "1m30s"},
			},
			"cron": map[string]any{
				"type":        "string",
				"description": "Standard 5-field cron expression; waits until its next activation",
				"examples":    []string{"*/5 * * * *", "0 9 * * MON-FRI"},
			},
		},
		"oneOf": []map[string]any{
			{"required": []string{"duration"}},
			{"required": []string{"cron"}},
		},
		"examples": []map[string]any{
			{"duration": "30s"},
			{"cron": "0 * * * *"},
		},
	}
}

// NewWaitNodeFactory creates a new factory instance.
func NewWaitNodeFactory() protocol.StepFactory {
	return &WaitNodeFactory{}
}
