// Package models defines the core domain models for step-based workflow graphs.
package models

import (
	"bytes"
	"encoding/json"
	"math"
)

// StepKind tags the kind of a workflow step.
type StepKind string

const (
	StepKindStart           StepKind = "start"
	StepKindEnd             StepKind = "end"
	StepKindFilterData      StepKind = "filterData"
	StepKindWait            StepKind = "wait"
	StepKindConvertFormat   StepKind = "convertFormat"
	StepKindSendPostRequest StepKind = "sendPostRequest"
)

// Position is a canvas coordinate. It carries no execution semantics.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Position) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// StepNode represents a step instance in a workflow graph.
type StepNode struct {
	ID         string         `json:"id"`
	Kind       StepKind       `json:"kind"`
	Position   Position       `json:"position"`
	Parameters map[string]any `json:"parameters"`
}

// Clone returns a copy of the node that does not share its parameters map.
func (n StepNode) Clone() StepNode {
	n.Parameters = CloneParameters(n.Parameters)

	return n
}

// Connection links the output port of Source to the input port of Target.
type Connection struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// CloneParameters deep-copies a parameters map, returning an empty map for
// nil. Nested maps and slices are copied; other values are shared.
func CloneParameters(params map[string]any) map[string]any {
	if params == nil {
		return make(map[string]any)
	}

	return cloneMap(params)
}

// NormalizeParameters returns params in the form a JSON decoder produces:
// objects become map[string]any, arrays []any and numbers json.Number, so a
// stored value compares equal to the same value read back from a document.
// It fails when a value has no JSON representation.
func NormalizeParameters(params map[string]any) (map[string]any, error) {
	if params == nil {
		return make(map[string]any), nil
	}

	data, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	normalized := make(map[string]any, len(params))
	if err := DecodeJSON(data, &normalized); err != nil {
		return nil, err
	}

	return normalized, nil
}

// DecodeJSON unmarshals data into v, keeping numbers as json.Number.
func DecodeJSON(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	return decoder.Decode(v)
}

func cloneMap(m map[string]any) map[string]any {
	copied := make(map[string]any, len(m))
	for key, value := range m {
		copied[key] = cloneValue(value)
	}

	return copied
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		if v == nil {
			return v
		}

		return cloneMap(v)
	case []any:
		if v == nil {
			return v
		}

		copied := make([]any, len(v))
		for i, item := range v {
			copied[i] = cloneValue(item)
		}

		return copied
	case []map[string]any:
		if v == nil {
			return v
		}

		copied := make([]map[string]any, len(v))
		for i, item := range v {
			copied[i] = CloneParameters(item)
		}

		return copied
	default:
		return value
	}
}
