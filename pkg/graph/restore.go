package graph

import (
	"fmt"

	"github.com/dukex/flowbuilder/pkg/models"
)

// Restore rebuilds a graph from stored nodes and connections, keeping their
// ids. The result satisfies the same structural rules as a graph produced by
// Builder operations; the first violation found is returned.
func (b *Builder) Restore(nodes []models.StepNode, connections []models.Connection) (*WorkflowGraph, error) {
	g := newWorkflowGraph()

	for _, node := range nodes {
		if node.ID == "" {
			return nil, &StructuralError{
				Op:      "restore",
				Code:    CodeDuplicateID,
				Message: "node id cannot be empty",
				Err:     ErrDuplicateID,
			}
		}

		if _, used := g.used[node.ID]; used {
			return nil, duplicateID(node.ID)
		}

		if !b.registry.IsKnown(node.Kind) {
			return nil, &StructuralError{
				Op:      "restore",
				Code:    CodeInvalidKind,
				NodeID:  node.ID,
				Message: fmt.Sprintf("node %s has unknown step kind '%s'", node.ID, node.Kind),
				Err:     ErrInvalidKind,
			}
		}

		if b.registry.IsSingleton(node.Kind) && g.countKind(node.Kind) > 0 {
			return nil, &StructuralError{
				Op:      "restore",
				Code:    CodeDuplicateSingleton,
				NodeID:  node.ID,
				Message: fmt.Sprintf("graph has more than one '%s' node", node.Kind),
				Err:     ErrDuplicateSingleton,
			}
		}

		if !node.Position.IsFinite() {
			return nil, invalidPosition("restore", node.ID, node.Position)
		}

		params, err := models.NormalizeParameters(node.Parameters)
		if err != nil {
			return nil, invalidParameters("restore", node.ID, err)
		}

		node.Parameters = params
		g.insertNode(node)

		switch node.Kind {
		case models.StepKindStart:
			g.startID = node.ID
		case models.StepKindEnd:
			g.endID = node.ID
		}
	}

	for _, required := range []struct {
		kind models.StepKind
		id   string
	}{{models.StepKindStart, g.startID}, {models.StepKindEnd, g.endID}} {
		if required.id == "" {
			return nil, &StructuralError{
				Op:      "restore",
				Code:    CodeMissingSingleton,
				Message: fmt.Sprintf("graph has no '%s' node", required.kind),
				Err:     ErrMissingSingleton,
			}
		}
	}

	for _, conn := range connections {
		if conn.ID == "" {
			return nil, &StructuralError{
				Op:      "restore",
				Code:    CodeDuplicateID,
				Message: "connection id cannot be empty",
				Err:     ErrDuplicateID,
			}
		}

		if _, used := g.used[conn.ID]; used {
			return nil, duplicateID(conn.ID)
		}

		if err := b.checkConnect(g, "restore", conn.Source, conn.Target); err != nil {
			return nil, err
		}

		g.insertConnection(conn)
	}

	return g, nil
}

func duplicateID(id string) *StructuralError {
	return &StructuralError{
		Op:      "restore",
		Code:    CodeDuplicateID,
		Message: fmt.Sprintf("identifier %s is used more than once", id),
		Err:     ErrDuplicateID,
	}
}
