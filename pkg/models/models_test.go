package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortShape_Has(t *testing.T) {
	tests := []struct {
		name      string
		shape     PortShape
		direction PortDirection
		want      bool
	}{
		{"input on step", PortShape{HasInput: true, HasOutput: true}, PortDirectionInput, true},
		{"output on step", PortShape{HasInput: true, HasOutput: true}, PortDirectionOutput, true},
		{"input on start", PortShape{HasOutput: true}, PortDirectionInput, false},
		{"output on end", PortShape{HasInput: true}, PortDirectionOutput, false},
		{"unknown direction", PortShape{HasInput: true, HasOutput: true}, PortDirection("sideways"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.shape.Has(tt.direction))
		})
	}
}

func TestStepNode_Clone(t *testing.T) {
	node := StepNode{
		ID:         "node-1",
		Kind:       StepKindWait,
		Position:   Position{X: 10, Y: 20},
		Parameters: map[string]any{"duration": "1s"},
	}

	clone := node.Clone()
	clone.Parameters["duration"] = "5s"

	assert.Equal(t, "1s", node.Parameters["duration"])
	assert.Equal(t, node.ID, clone.ID)
	assert.Equal(t, node.Position, clone.Position)
}

func TestStepNode_Clone_NilParameters(t *testing.T) {
	clone := StepNode{ID: "node-1", Kind: StepKindFilterData}.Clone()

	require.NotNil(t, clone.Parameters)
	assert.Empty(t, clone.Parameters)
}

func TestStepNode_JSON(t *testing.T) {
	node := StepNode{
		ID:         "node-1",
		Kind:       StepKindConvertFormat,
		Position:   Position{X: 1.5, Y: 2},
		Parameters: map[string]any{"to": "yaml"},
	}

	data, err := json.Marshal(node)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"id":"node-1","kind":"convertFormat","position":{"x":1.5,"y":2},"parameters":{"to":"yaml"}}`,
		string(data),
	)
}

func TestCloneParameters_Deep(t *testing.T) {
	params := map[string]any{
		"headers": map[string]any{"X": "1"},
		"tags":    []any{"a", map[string]any{"k": "v"}},
	}

	clone := CloneParameters(params)
	clone["headers"].(map[string]any)["X"] = "2"
	clone["tags"].([]any)[0] = "b"
	clone["tags"].([]any)[1].(map[string]any)["k"] = "w"

	assert.Equal(t, map[string]any{
		"headers": map[string]any{"X": "1"},
		"tags":    []any{"a", map[string]any{"k": "v"}},
	}, params)
}

func TestNormalizeParameters(t *testing.T) {
	normalized, err := NormalizeParameters(map[string]any{
		"timeout": 5,
		"ratio":   18.5,
		"big":     int64(9007199254740993),
		"headers": map[string]string{"X": "1"},
		"list":    []int{1, 2},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"timeout": json.Number("5"),
		"ratio":   json.Number("18.5"),
		"big":     json.Number("9007199254740993"),
		"headers": map[string]any{"X": "1"},
		"list":    []any{json.Number("1"), json.Number("2")},
	}, normalized)

	empty, err := NormalizeParameters(nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = NormalizeParameters(map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}

func TestPosition_IsFinite(t *testing.T) {
	assert.True(t, Position{X: -4, Y: 1e300}.IsFinite())
	assert.False(t, Position{X: math.NaN()}.IsFinite())
	assert.False(t, Position{Y: math.Inf(1)}.IsFinite())
	assert.False(t, Position{X: math.Inf(-1)}.IsFinite())
}
