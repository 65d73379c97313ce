package graph_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/dukex/flowbuilder/pkg/graph"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreNodes() []models.StepNode {
	return []models.StepNode{
		{ID: "s", Kind: models.StepKindStart, Position: models.Position{X: 250}},
		{ID: "f", Kind: models.StepKindFilterData, Parameters: map[string]any{"field": "age"}},
		{ID: "e", Kind: models.StepKindEnd, Position: models.Position{X: 250, Y: 300}},
	}
}

func TestBuilder_Restore(t *testing.T) {
	b := testutil.NewTestBuilder()

	g, err := b.Restore(restoreNodes(), []models.Connection{
		{ID: "c1", Source: "s", Target: "f"},
		{ID: "c2", Source: "f", Target: "e"},
	})
	require.NoError(t, err)

	assert.Equal(t, "s", g.StartID())
	assert.Equal(t, "e", g.EndID())
	assert.Equal(t, []string{"s", "f", "e"}, g.NodeIDs())
	assert.Equal(t, 2, g.ConnectionCount())

	start, _ := g.Node("s")
	assert.NotNil(t, start.Parameters)

	filter, _ := g.Node("f")
	assert.Equal(t, "age", filter.Parameters["field"])

	// restored ids are reserved
	node, err := b.AddNode(g, models.StepKindWait, models.Position{})
	require.NoError(t, err)
	assert.NotContains(t, []string{"s", "f", "e", "c1", "c2"}, node.ID)
}

func TestBuilder_Restore_Errors(t *testing.T) {
	tests := []struct {
		name        string
		nodes       []models.StepNode
		connections []models.Connection
		err         error
	}{
		{
			name:  "duplicate node id",
			nodes: append(restoreNodes(), models.StepNode{ID: "f", Kind: models.StepKindWait}),
			err:   graph.ErrDuplicateID,
		},
		{
			name:        "connection id clashes with node id",
			nodes:       restoreNodes(),
			connections: []models.Connection{{ID: "f", Source: "s", Target: "f"}},
			err:         graph.ErrDuplicateID,
		},
		{
			name:  "empty node id",
			nodes: append(restoreNodes(), models.StepNode{Kind: models.StepKindWait}),
			err:   graph.ErrDuplicateID,
		},
		{
			name:  "unknown kind",
			nodes: append(restoreNodes(), models.StepNode{ID: "x", Kind: "teleport"}),
			err:   graph.ErrInvalidKind,
		},
		{
			name:  "second start",
			nodes: append(restoreNodes(), models.StepNode{ID: "s2", Kind: models.StepKindStart}),
			err:   graph.ErrDuplicateSingleton,
		},
		{
			name:  "missing end",
			nodes: restoreNodes()[:2],
			err:   graph.ErrMissingSingleton,
		},
		{
			name:        "dangling connection",
			nodes:       restoreNodes(),
			connections: []models.Connection{{ID: "c1", Source: "s", Target: "ghost"}},
			err:         graph.ErrNodeNotFound,
		},
		{
			name:  "fan-in",
			nodes: append(restoreNodes(), models.StepNode{ID: "w", Kind: models.StepKindWait}),
			connections: []models.Connection{
				{ID: "c1", Source: "s", Target: "f"},
				{ID: "c2", Source: "w", Target: "f"},
			},
			err: graph.ErrFanInViolation,
		},
		{
			name:  "non-finite position",
			nodes: append(restoreNodes(), models.StepNode{ID: "w", Kind: models.StepKindWait, Position: models.Position{X: math.NaN()}}),
			err:   graph.ErrInvalidPosition,
		},
		{
			name:  "unencodable parameters",
			nodes: append(restoreNodes(), models.StepNode{ID: "w", Kind: models.StepKindWait, Parameters: map[string]any{"bad": make(chan int)}}),
			err:   graph.ErrInvalidParameters,
		},
		{
			name:        "port mismatch",
			nodes:       restoreNodes(),
			connections: []models.Connection{{ID: "c1", Source: "e", Target: "f"}},
			err:         graph.ErrPortMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewTestBuilder()

			g, err := b.Restore(tt.nodes, tt.connections)
			require.Error(t, err)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, tt.err)
			assert.True(t, graph.IsStructuralError(err))
		})
	}
}

func TestBuilder_Restore_NormalizesParameters(t *testing.T) {
	b := testutil.NewTestBuilder()

	nodes := restoreNodes()
	nodes[1].Parameters = map[string]any{"field": "age", "value": 18, "tags": []string{"a"}}

	g, err := b.Restore(nodes, nil)
	require.NoError(t, err)

	filter, _ := g.Node("f")
	assert.Equal(t, map[string]any{
		"field": "age",
		"value": json.Number("18"),
		"tags":  []any{"a"},
	}, filter.Parameters)
}
