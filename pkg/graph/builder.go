package graph

import (
	"fmt"

	"github.com/dukex/flowbuilder/pkg/idgen"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/registry"
)

const maxIDAttempts = 16

// Builder applies structural mutations to workflow graphs. Every operation is
// atomic: it either succeeds completely or returns a *StructuralError and
// leaves the graph unchanged.
type Builder struct {
	registry *registry.Registry
	ids      idgen.Generator
}

func NewBuilder(reg *registry.Registry, ids idgen.Generator) *Builder {
	if ids == nil {
		ids = idgen.UUID
	}

	return &Builder{
		registry: reg,
		ids:      ids,
	}
}

// NewGraph returns a graph holding only a start node and an end node at
// their default positions, with no connections.
func (b *Builder) NewGraph() (*WorkflowGraph, error) {
	g := newWorkflowGraph()

	startID, err := b.nextID(g, "new_graph")
	if err != nil {
		return nil, err
	}

	g.insertNode(models.StepNode{ID: startID, Kind: models.StepKindStart, Position: DefaultStartPosition})
	g.startID = startID

	endID, err := b.nextID(g, "new_graph")
	if err != nil {
		return nil, err
	}

	g.insertNode(models.StepNode{ID: endID, Kind: models.StepKindEnd, Position: DefaultEndPosition})
	g.endID = endID

	return g, nil
}

// AddNode appends a node of the given kind with empty parameters and returns a copy of it.
func (b *Builder) AddNode(g *WorkflowGraph, kind models.StepKind, pos models.Position) (models.StepNode, error) {
	if !pos.IsFinite() {
		return models.StepNode{}, invalidPosition("add_node", "", pos)
	}

	if !b.registry.IsKnown(kind) {
		return models.StepNode{}, &StructuralError{
			Op:      "add_node",
			Code:    CodeInvalidKind,
			Message: fmt.Sprintf("step kind '%s' is not registered", kind),
			Err:     ErrInvalidKind,
		}
	}

	if b.registry.IsSingleton(kind) && g.countKind(kind) > 0 {
		return models.StepNode{}, &StructuralError{
			Op:      "add_node",
			Code:    CodeDuplicateSingleton,
			Message: fmt.Sprintf("graph already has a '%s' node", kind),
			Err:     ErrDuplicateSingleton,
		}
	}

	id, err := b.nextID(g, "add_node")
	if err != nil {
		return models.StepNode{}, err
	}

	node := models.StepNode{
		ID:         id,
		Kind:       kind,
		Position:   pos,
		Parameters: make(map[string]any),
	}
	g.insertNode(node)

	return node.Clone(), nil
}

// MoveNode updates the canvas position of a node.
func (b *Builder) MoveNode(g *WorkflowGraph, nodeID string, pos models.Position) error {
	node, ok := g.nodes[nodeID]
	if !ok {
		return nodeNotFound("move_node", nodeID)
	}

	if !pos.IsFinite() {
		return invalidPosition("move_node", nodeID, pos)
	}

	node.Position = pos

	return nil
}

// SetParameters replaces the parameters of a node. Parameters are opaque to
// the graph; they are checked against the kind's schema when the step is
// instantiated. They are stored in their JSON form (see
// models.NormalizeParameters), so values without one are rejected.
func (b *Builder) SetParameters(g *WorkflowGraph, nodeID string, params map[string]any) error {
	node, ok := g.nodes[nodeID]
	if !ok {
		return nodeNotFound("set_parameters", nodeID)
	}

	normalized, err := models.NormalizeParameters(params)
	if err != nil {
		return invalidParameters("set_parameters", nodeID, err)
	}

	node.Parameters = normalized

	return nil
}

// RemoveNode deletes a node and every connection that references it. The
// start and end nodes are protected.
func (b *Builder) RemoveNode(g *WorkflowGraph, nodeID string) error {
	node, ok := g.nodes[nodeID]
	if !ok {
		return nodeNotFound("remove_node", nodeID)
	}

	if nodeID == g.startID || nodeID == g.endID || b.registry.IsSingleton(node.Kind) {
		return &StructuralError{
			Op:      "remove_node",
			Code:    CodeProtectedNode,
			NodeID:  nodeID,
			Message: fmt.Sprintf("node %s of kind '%s' cannot be removed", nodeID, node.Kind),
			Err:     ErrProtectedNode,
		}
	}

	g.deleteNode(nodeID)

	return nil
}

// Connect links the output port of source to the input port of target.
func (b *Builder) Connect(g *WorkflowGraph, source, target string) (models.Connection, error) {
	if err := b.checkConnect(g, "connect", source, target); err != nil {
		return models.Connection{}, err
	}

	id, err := b.nextID(g, "connect")
	if err != nil {
		return models.Connection{}, err
	}

	conn := models.Connection{ID: id, Source: source, Target: target}
	g.insertConnection(conn)

	return conn, nil
}

// Disconnect removes a connection.
func (b *Builder) Disconnect(g *WorkflowGraph, connectionID string) error {
	if _, ok := g.connections[connectionID]; !ok {
		return &StructuralError{
			Op:           "disconnect",
			Code:         CodeConnectionNotFound,
			ConnectionID: connectionID,
			Message:      fmt.Sprintf("connection %s not found", connectionID),
			Err:          ErrConnectionNotFound,
		}
	}

	g.deleteConnection(connectionID)

	return nil
}

// checkConnect runs the connection rules in order: both endpoints exist, no
// self loop, source has an output port, target has an input port, target
// input is free.
func (b *Builder) checkConnect(g *WorkflowGraph, op, source, target string) error {
	sourceNode, ok := g.nodes[source]
	if !ok {
		return nodeNotFound(op, source)
	}

	targetNode, ok := g.nodes[target]
	if !ok {
		return nodeNotFound(op, target)
	}

	if source == target {
		return &StructuralError{
			Op:      op,
			Code:    CodeSelfLoop,
			NodeID:  source,
			Message: fmt.Sprintf("node %s cannot connect to itself", source),
			Err:     ErrSelfLoop,
		}
	}

	if !b.registry.PortShape(sourceNode.Kind).Has(models.PortDirectionOutput) {
		return &StructuralError{
			Op:      op,
			Code:    CodePortMismatch,
			NodeID:  source,
			Message: fmt.Sprintf("node %s of kind '%s' has no output port", source, sourceNode.Kind),
			Err:     ErrPortMismatch,
		}
	}

	if !b.registry.PortShape(targetNode.Kind).Has(models.PortDirectionInput) {
		return &StructuralError{
			Op:      op,
			Code:    CodePortMismatch,
			NodeID:  target,
			Message: fmt.Sprintf("node %s of kind '%s' has no input port", target, targetNode.Kind),
			Err:     ErrPortMismatch,
		}
	}

	if existing, taken := g.incoming[target]; taken {
		return &StructuralError{
			Op:           op,
			Code:         CodeFanInViolation,
			NodeID:       target,
			ConnectionID: existing,
			Message:      fmt.Sprintf("input of node %s is already fed by connection %s", target, existing),
			Err:          ErrFanInViolation,
		}
	}

	return nil
}

// nextID draws ids until one is found that the graph never used.
func (b *Builder) nextID(g *WorkflowGraph, op string) (string, error) {
	for range maxIDAttempts {
		id := b.ids()
		if id == "" {
			continue
		}

		if _, used := g.used[id]; !used {
			return id, nil
		}
	}

	return "", &StructuralError{
		Op:   op,
		Code: CodeIDExhausted,
		Err:  ErrIDExhausted,
	}
}
