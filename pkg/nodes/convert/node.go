// Package convert provides the convert-format step implementation for workflow execution.
package convert

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/dukex/flowbuilder/pkg/models"
	"gopkg.in/yaml.v3"
)

// Format is a text format the payload can be rendered to.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ConvertNode renders its input into a text format.
type ConvertNode struct {
	id    string
	to    Format
	field string
}

// NewConvertNode creates a new convert-format step.
func NewConvertNode(id string, params map[string]any) (*ConvertNode, error) {
	to, ok := params["to"].(string)
	if !ok || to == "" {
		return nil, errors.New("missing required field 'to'")
	}

	if !slices.Contains([]Format{FormatJSON, FormatYAML, FormatCSV}, Format(to)) {
		return nil, fmt.Errorf("unsupported format '%s'", to)
	}

	field, _ := params["field"].(string)

	return &ConvertNode{id: id, to: Format(to), field: field}, nil
}

// ID returns the node ID.
func (n *ConvertNode) ID() string {
	return n.id
}

// Kind returns the step kind.
func (n *ConvertNode) Kind() models.StepKind {
	return models.StepKindConvertFormat
}

// Execute renders the input. The output carries the rendered text under
// 'content' and the format name under 'format'.
func (n *ConvertNode) Execute(_ context.Context, input map[string]any) (map[string]any, error) {
	var source any = input

	if n.field != "" {
		value, ok := input[n.field]
		if !ok {
			return nil, fmt.Errorf("field '%s' not found in payload", n.field)
		}

		source = value
	}

	var (
		content []byte
		err     error
	)

	switch n.to {
	case FormatJSON:
		content, err = json.Marshal(source)
	case FormatYAML:
		content, err = yaml.Marshal(source)
	case FormatCSV:
		content, err = toCSV(source)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to convert payload to %s: %w", n.to, err)
	}

	return map[string]any{
		"format":  string(n.to),
		"content": string(content),
	}, nil
}

// toCSV writes one row per record. The header is the sorted union of the
// record keys.
func toCSV(source any) ([]byte, error) {
	var records []map[string]any

	switch value := source.(type) {
	case map[string]any:
		if items, ok := value["items"]; ok {
			return toCSV(items)
		}

		records = []map[string]any{value}
	case []map[string]any:
		records = value
	case []any:
		for _, item := range value {
			record, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("csv rows must be objects, got %T", item)
			}

			records = append(records, record)
		}
	default:
		return nil, fmt.Errorf("cannot render %T as csv", source)
	}

	columns := make([]string, 0)
	seen := make(map[string]bool)

	for _, record := range records {
		for key := range record {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}

	sort.Strings(columns)

	var buf bytes.Buffer

	writer := csv.NewWriter(&buf)

	if err := writer.Write(columns); err != nil {
		return nil, err
	}

	for _, record := range records {
		row := make([]string, len(columns))

		for i, column := range columns {
			value, ok := record[column]
			if !ok || value == nil {
				continue
			}

			row[i] = cell(value)
		}

		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()

	return buf.Bytes(), writer.Error()
}

func cell(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(encoded)
	default:
		return fmt.Sprint(v)
	}
}
