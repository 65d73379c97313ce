// Package registry provides the catalog of step kinds, their port shapes and
// step factories.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/protocol"
)

var (
	// ErrUnknownKind is returned when a step kind is not registered.
	ErrUnknownKind = errors.New("unknown step kind")

	// ErrNotExecutable is returned when a kind has no step factory (start, end).
	ErrNotExecutable = errors.New("step kind has no executable behaviour")

	// ErrInvalidParameters is returned when step parameters do not match the kind's schema.
	ErrInvalidParameters = errors.New("invalid step parameters")
)

// Definition describes a step kind.
type Definition struct {
	Kind        models.StepKind      `json:"kind"`
	Label       string               `json:"label"`
	Description string               `json:"description"`
	Ports       models.PortShape     `json:"ports"`
	Singleton   bool                 `json:"singleton"`
	Schema      map[string]any       `json:"schema,omitempty"`
	Factory     protocol.StepFactory `json:"-"`
}

// PaletteVisible reports whether users may drop new instances of the kind.
func (d Definition) PaletteVisible() bool {
	return !d.Singleton
}

// Registry is the single source of truth for which step kinds exist. It is
// populated at startup and read-only afterwards.
type Registry struct {
	logger      *slog.Logger
	definitions map[models.StepKind]Definition
	order       []models.StepKind
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:      log,
		definitions: make(map[models.StepKind]Definition),
	}
}

// Register adds or replaces a step kind definition.
func (r *Registry) Register(def Definition) {
	if _, exists := r.definitions[def.Kind]; !exists {
		r.order = append(r.order, def.Kind)
	}

	if def.Schema == nil && def.Factory != nil {
		def.Schema = def.Factory.Schema()
	}

	r.definitions[def.Kind] = def

	r.logger.Debug("Registered step kind", "kind", def.Kind, "label", def.Label)
}

// RegisterStep registers a single-input, single-output step kind backed by factory.
func (r *Registry) RegisterStep(factory protocol.StepFactory) {
	r.Register(Definition{
		Kind:        factory.Kind(),
		Label:       factory.Name(),
		Description: factory.Description(),
		Ports:       models.PortShape{HasInput: true, HasOutput: true},
		Schema:      factory.Schema(),
		Factory:     factory,
	})
}

// Lookup returns the definition of kind.
func (r *Registry) Lookup(kind models.StepKind) (Definition, bool) {
	def, ok := r.definitions[kind]

	return def, ok
}

// IsKnown reports whether kind is registered.
func (r *Registry) IsKnown(kind models.StepKind) bool {
	_, ok := r.definitions[kind]

	return ok
}

// PortShape returns the ports of kind. Unknown kinds expose no ports.
func (r *Registry) PortShape(kind models.StepKind) models.PortShape {
	return r.definitions[kind].Ports
}

// Label returns the display label of kind, or the kind tag itself when unknown.
func (r *Registry) Label(kind models.StepKind) string {
	def, ok := r.definitions[kind]
	if !ok || def.Label == "" {
		return string(kind)
	}

	return def.Label
}

// IsSingleton reports whether a graph holds exactly one node of kind.
func (r *Registry) IsSingleton(kind models.StepKind) bool {
	return r.definitions[kind].Singleton
}

// Definitions returns every registered kind in registration order.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, kind := range r.order {
		defs = append(defs, r.definitions[kind])
	}

	return defs
}

// CreateStep validates params against the kind's schema and creates the step.
func (r *Registry) CreateStep(ctx context.Context, kind models.StepKind, id string, params map[string]any) (protocol.Step, error) {
	def, ok := r.definitions[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	if def.Factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotExecutable, kind)
	}

	err := r.ValidateParameters(kind, params)
	if err != nil {
		return nil, err
	}

	step, err := def.Factory.Create(ctx, id, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidParameters, id, err)
	}

	return step, nil
}

// HealthCheck reports whether the registry can describe a graph.
func (r *Registry) HealthCheck() (string, bool) {
	for _, kind := range []models.StepKind{models.StepKindStart, models.StepKindEnd} {
		if !r.IsKnown(kind) {
			return fmt.Sprintf("Registry is missing the %s step kind", kind), false
		}
	}

	return fmt.Sprintf("Registry has %d step kinds", len(r.order)), true
}
