// Package filter provides the filter-data step implementation for workflow execution.
package filter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/dukex/flowbuilder/pkg/models"
)

// DefaultItemsField is the payload field filtered when none is configured.
const DefaultItemsField = "items"

// Operator is a comparison applied to a record field.
type Operator string

const (
	OperatorEq       Operator = "eq"
	OperatorNe       Operator = "ne"
	OperatorContains Operator = "contains"
	OperatorExists   Operator = "exists"
	OperatorGt       Operator = "gt"
	OperatorLt       Operator = "lt"
)

var operators = []Operator{OperatorEq, OperatorNe, OperatorContains, OperatorExists, OperatorGt, OperatorLt}

// FilterNode keeps the records whose field satisfies the configured condition.
type FilterNode struct {
	id         string
	field      []string
	operator   Operator
	value      any
	itemsField string
}

// NewFilterNode creates a new filter step.
func NewFilterNode(id string, params map[string]any) (*FilterNode, error) {
	field, ok := params["field"].(string)
	if !ok || field == "" {
		return nil, errors.New("missing required field 'field'")
	}

	node := &FilterNode{
		id:         id,
		field:      strings.Split(field, "."),
		operator:   OperatorEq,
		value:      params["value"],
		itemsField: DefaultItemsField,
	}

	if op, ok := params["operator"].(string); ok && op != "" {
		node.operator = Operator(op)
	}

	if !slices.Contains(operators, node.operator) {
		return nil, fmt.Errorf("unsupported operator '%s'", node.operator)
	}

	if itemsField, ok := params["items_field"].(string); ok && itemsField != "" {
		node.itemsField = itemsField
	}

	return node, nil
}

// ID returns the node ID.
func (n *FilterNode) ID() string {
	return n.id
}

// Kind returns the step kind.
func (n *FilterNode) Kind() models.StepKind {
	return models.StepKindFilterData
}

// Execute filters the record list found under the items field. A payload
// without a record list is treated as a single record.
func (n *FilterNode) Execute(_ context.Context, input map[string]any) (map[string]any, error) {
	output := models.CloneParameters(input)

	records, isList := asRecords(input[n.itemsField])
	if !isList {
		if n.matches(input) {
			output["matched"] = 1

			return output, nil
		}

		return map[string]any{"matched": 0}, nil
	}

	kept := make([]any, 0, len(records))

	for _, record := range records {
		if n.matches(record) {
			kept = append(kept, record)
		}
	}

	output[n.itemsField] = kept
	output["matched"] = len(kept)

	return output, nil
}

func (n *FilterNode) matches(record map[string]any) bool {
	actual, found := lookup(record, n.field)

	switch n.operator {
	case OperatorExists:
		return found
	case OperatorEq:
		return found && equal(actual, n.value)
	case OperatorNe:
		return !found || !equal(actual, n.value)
	case OperatorContains:
		return found && contains(actual, n.value)
	case OperatorGt, OperatorLt:
		left, okLeft := toFloat(actual)
		right, okRight := toFloat(n.value)

		if !found || !okLeft || !okRight {
			return false
		}

		if n.operator == OperatorGt {
			return left > right
		}

		return left < right
	default:
		return false
	}
}

func asRecords(value any) ([]map[string]any, bool) {
	switch list := value.(type) {
	case []map[string]any:
		return list, true
	case []any:
		records := make([]map[string]any, 0, len(list))

		for _, item := range list {
			if record, ok := item.(map[string]any); ok {
				records = append(records, record)
			}
		}

		return records, true
	default:
		return nil, false
	}
}

func lookup(record map[string]any, path []string) (any, bool) {
	var current any = record

	for _, segment := range path {
		object, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = object[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func equal(actual, expected any) bool {
	left, okLeft := toFloat(actual)
	right, okRight := toFloat(expected)

	if okLeft && okRight {
		return left == right
	}

	return reflect.DeepEqual(actual, expected)
}

func contains(actual, expected any) bool {
	switch value := actual.(type) {
	case string:
		needle, ok := expected.(string)

		return ok && strings.Contains(value, needle)
	case []any:
		for _, item := range value {
			if equal(item, expected) {
				return true
			}
		}
	}

	return false
}

func toFloat(value any) (float64, bool) {
	switch number := value.(type) {
	case float64:
		return number, true
	case json.Number:
		parsed, err := number.Float64()

		return parsed, err == nil
	case float32:
		return float64(number), true
	case int:
		return float64(number), true
	case int64:
		return float64(number), true
	case int32:
		return float64(number), true
	case string:
		parsed, err := strconv.ParseFloat(number, 64)

		return parsed, err == nil
	default:
		return 0, false
	}
}
