// Package models defines port shapes for step connections.
package models

// PortDirection represents the direction of data flow for a port.
type PortDirection string

const (
	PortDirectionInput  PortDirection = "input"
	PortDirectionOutput PortDirection = "output"
)

// PortShape declares which ports a step kind exposes. Every step has at most
// one input port and at most one output port.
type PortShape struct {
	HasInput  bool `json:"has_input"`
	HasOutput bool `json:"has_output"`
}

// Has reports whether the shape exposes a port in the given direction.
func (s PortShape) Has(direction PortDirection) bool {
	switch direction {
	case PortDirectionInput:
		return s.HasInput
	case PortDirectionOutput:
		return s.HasOutput
	default:
		return false
	}
}
