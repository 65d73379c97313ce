package filter

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orders() map[string]any {
	return map[string]any{
		"source": "shop",
		"items": []any{
			map[string]any{"id": "a", "status": "paid", "amount": 120.0, "customer": map[string]any{"country": "BR"}},
			map[string]any{"id": "b", "status": "pending", "amount": 40.0, "customer": map[string]any{"country": "PT"}},
			map[string]any{"id": "c", "status": "paid", "amount": 15.0, "tags": []any{"gift"}},
		},
	}
}

func ids(t *testing.T, output map[string]any) []string {
	t.Helper()

	items, ok := output["items"].([]any)
	require.True(t, ok, "items must be a list")

	result := make([]string, 0, len(items))
	for _, item := range items {
		result = append(result, item.(map[string]any)["id"].(string))
	}

	return result
}

func TestFilterNode_Execute(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   []string
	}{
		{"eq string", map[string]any{"field": "status", "value": "paid"}, []string{"a", "c"}},
		{"ne string", map[string]any{"field": "status", "operator": "ne", "value": "paid"}, []string{"b"}},
		{"gt number", map[string]any{"field": "amount", "operator": "gt", "value": 100}, []string{"a"}},
		{"lt number", map[string]any{"field": "amount", "operator": "lt", "value": 50.0}, []string{"b", "c"}},
		{"gt decoded number", map[string]any{"field": "amount", "operator": "gt", "value": json.Number("100")}, []string{"a"}},
		{"eq decoded number", map[string]any{"field": "amount", "value": json.Number("40")}, []string{"b"}},
		{"nested path", map[string]any{"field": "customer.country", "value": "PT"}, []string{"b"}},
		{"exists", map[string]any{"field": "customer", "operator": "exists"}, []string{"a", "b"}},
		{"contains in list", map[string]any{"field": "tags", "operator": "contains", "value": "gift"}, []string{"c"}},
		{"contains in string", map[string]any{"field": "status", "operator": "contains", "value": "pend"}, []string{"b"}},
		{"no match", map[string]any{"field": "status", "value": "refunded"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := NewFilterNode("filter-1", tt.params)
			require.NoError(t, err)

			output, err := node.Execute(context.Background(), orders())
			require.NoError(t, err)

			assert.Equal(t, tt.want, ids(t, output))
			assert.Equal(t, len(tt.want), output["matched"])
			assert.Equal(t, "shop", output["source"])
		})
	}
}

func TestFilterNode_Execute_DoesNotMutateInput(t *testing.T) {
	node, err := NewFilterNode("filter-1", map[string]any{"field": "status", "value": "paid"})
	require.NoError(t, err)

	input := orders()
	_, err = node.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Len(t, input["items"], 3)
}

func TestFilterNode_Execute_SingleRecord(t *testing.T) {
	node, err := NewFilterNode("filter-1", map[string]any{"field": "status", "value": "paid"})
	require.NoError(t, err)

	output, err := node.Execute(context.Background(), map[string]any{"status": "paid"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "paid", "matched": 1}, output)

	output, err = node.Execute(context.Background(), map[string]any{"status": "open"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"matched": 0}, output)
}

func TestFilterNode_CustomItemsField(t *testing.T) {
	node, err := NewFilterNode("filter-1", map[string]any{
		"field":       "ok",
		"value":       true,
		"items_field": "rows",
	})
	require.NoError(t, err)

	output, err := node.Execute(context.Background(), map[string]any{
		"rows": []map[string]any{{"ok": true}, {"ok": false}},
	})
	require.NoError(t, err)

	assert.Equal(t, []any{map[string]any{"ok": true}}, output["rows"])
}

func TestNewFilterNode_Errors(t *testing.T) {
	_, err := NewFilterNode("filter-1", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field")

	_, err = NewFilterNode("filter-1", map[string]any{"field": "x", "operator": "regex"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported operator")
}

func TestFilterNodeFactory(t *testing.T) {
	factory := NewFilterNodeFactory()

	assert.Equal(t, models.StepKindFilterData, factory.Kind())
	assert.Equal(t, "Filter Data", factory.Name())
	assert.NotEmpty(t, factory.Description())
	assert.Equal(t, []string{"field"}, factory.Schema()["required"])

	step, err := factory.Create(context.Background(), "filter-1", map[string]any{"field": "x"})
	require.NoError(t, err)
	assert.Equal(t, "filter-1", step.ID())
	assert.Equal(t, models.StepKindFilterData, step.Kind())
}
