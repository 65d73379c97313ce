package registry

import (
	"log/slog"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/nodes/convert"
	"github.com/dukex/flowbuilder/pkg/nodes/filter"
	"github.com/dukex/flowbuilder/pkg/nodes/httppost"
	"github.com/dukex/flowbuilder/pkg/nodes/wait"
)

// RegisterDefaultNodes registers the start and end markers and all built-in steps.
func (r *Registry) RegisterDefaultNodes() {
	r.Register(Definition{
		Kind:        models.StepKindStart,
		Label:       "Start",
		Description: "Entry point of the workflow; emits the run input",
		Ports:       models.PortShape{HasOutput: true},
		Singleton:   true,
	})

	r.Register(Definition{
		Kind:        models.StepKindEnd,
		Label:       "End",
		Description: "Exit point of the workflow; its input is the run output",
		Ports:       models.PortShape{HasInput: true},
		Singleton:   true,
	})

	r.RegisterStep(filter.NewFilterNodeFactory())
	r.RegisterStep(wait.NewWaitNodeFactory())
	r.RegisterStep(convert.NewConvertNodeFactory())
	r.RegisterStep(httppost.NewPostNodeFactory())
}

// NewDefaultRegistry returns a registry holding the built-in step kinds.
func NewDefaultRegistry(log *slog.Logger) *Registry {
	r := NewRegistry(log)
	r.RegisterDefaultNodes()

	return r
}
