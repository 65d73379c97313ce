// Package testutil provides test graph builders and utilities for testing.
package testutil

import (
	"log/slog"
	"testing"

	"github.com/dukex/flowbuilder/pkg/graph"
	"github.com/dukex/flowbuilder/pkg/idgen"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/registry"
	"github.com/stretchr/testify/require"
)

// NewTestRegistry returns the default registry with logging discarded.
func NewTestRegistry() *registry.Registry {
	return registry.NewDefaultRegistry(slog.New(slog.DiscardHandler))
}

// NewTestBuilder returns a builder over the default registry with
// deterministic ids ("id-1", "id-2", ...).
func NewTestBuilder() *graph.Builder {
	return graph.NewBuilder(NewTestRegistry(), idgen.Sequence("id"))
}

// NewTestGraph creates an empty graph holding only start and end.
func NewTestGraph(t testing.TB, b *graph.Builder) *graph.WorkflowGraph {
	t.Helper()

	g, err := b.NewGraph()
	require.NoError(t, err)

	return g
}

// AddTestNode adds a node of the given kind and applies overrides through the builder.
func AddTestNode(t testing.TB, b *graph.Builder, g *graph.WorkflowGraph, kind models.StepKind, overrides ...func(*models.StepNode)) models.StepNode {
	t.Helper()

	node, err := b.AddNode(g, kind, models.Position{X: 100, Y: 200})
	require.NoError(t, err)

	for _, override := range overrides {
		override(&node)
	}

	require.NoError(t, b.MoveNode(g, node.ID, node.Position))
	require.NoError(t, b.SetParameters(g, node.ID, node.Parameters))

	stored, ok := g.Node(node.ID)
	require.True(t, ok)

	return stored
}

// WithPosition sets the node position.
func WithPosition(x, y float64) func(*models.StepNode) {
	return func(n *models.StepNode) {
		n.Position = models.Position{X: x, Y: y}
	}
}

// WithParameters sets the node parameters.
func WithParameters(params map[string]any) func(*models.StepNode) {
	return func(n *models.StepNode) {
		n.Parameters = params
	}
}

// MustConnect connects source to target and fails the test on error.
func MustConnect(t testing.TB, b *graph.Builder, g *graph.WorkflowGraph, source, target string) models.Connection {
	t.Helper()

	conn, err := b.Connect(g, source, target)
	require.NoError(t, err)

	return conn
}

// ChainGraph builds start -> steps... -> end and returns the graph together
// with the ids of the intermediate nodes in chain order.
func ChainGraph(t testing.TB, b *graph.Builder, steps ...models.StepKind) (*graph.WorkflowGraph, []string) {
	t.Helper()

	g := NewTestGraph(t, b)

	ids := make([]string, 0, len(steps))
	previous := g.StartID()

	for _, kind := range steps {
		node := AddTestNode(t, b, g, kind)
		MustConnect(t, b, g, previous, node.ID)
		ids = append(ids, node.ID)
		previous = node.ID
	}

	MustConnect(t, b, g, previous, g.EndID())

	return g, ids
}
