// Package serializer converts workflow graphs to and from a versioned JSON
// document.
package serializer

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dukex/flowbuilder/pkg/graph"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// CurrentVersion is the schema version written by Serialize.
const CurrentVersion = 1

//go:embed schemas/document_v1.json
var documentSchemaV1 string

var documentSchemas = map[int]gojsonschema.JSONLoader{
	1: gojsonschema.NewStringLoader(documentSchemaV1),
}

// Document is the persisted representation of a workflow graph.
type Document struct {
	Version     int                 `json:"version"`
	Nodes       []models.StepNode   `json:"nodes"`
	Connections []models.Connection `json:"connections"`
}

// Serializer encodes and decodes workflow graphs. Decoding rebuilds graphs
// through the builder so decoded graphs obey the same structural rules as
// edited ones.
type Serializer struct {
	builder *graph.Builder
}

func NewSerializer(builder *graph.Builder) *Serializer {
	return &Serializer{builder: builder}
}

// Encode returns the document for g.
func (s *Serializer) Encode(g *graph.WorkflowGraph) Document {
	return Document{
		Version:     CurrentVersion,
		Nodes:       g.Nodes(),
		Connections: g.Connections(),
	}
}

// Serialize encodes g as a JSON document. Graphs built through a Builder
// hold only JSON-representable parameters and finite positions, so an error
// here means the graph was assembled some other way.
func (s *Serializer) Serialize(g *graph.WorkflowGraph) ([]byte, error) {
	data, err := json.Marshal(s.Encode(g))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workflow: %w", err)
	}

	return data, nil
}

// Deserialize decodes a JSON document into a new graph. Checks run in order:
// JSON syntax, version tag, document shape, graph integrity.
func (s *Serializer) Deserialize(data []byte) (*graph.WorkflowGraph, error) {
	var header struct {
		Version json.RawMessage `json:"version"`
	}

	if err := json.Unmarshal(data, &header); err != nil {
		return nil, malformed("payload is not a JSON object", err)
	}

	if len(header.Version) == 0 || string(header.Version) == "null" {
		return nil, malformed("version is missing", nil)
	}

	var version int
	if err := json.Unmarshal(header.Version, &version); err != nil {
		return nil, malformed(fmt.Sprintf("version %s is not an integer", header.Version), err)
	}

	schema, ok := documentSchemas[version]
	if !ok {
		return nil, &DecodeError{
			Code:   CodeSchemaVersionUnsupported,
			Detail: fmt.Sprintf("version %d is not supported", version),
			Err:    ErrSchemaVersionUnsupported,
		}
	}

	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, malformed("payload could not be checked against the document schema", err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}

		return nil, malformed(strings.Join(problems, "; "), nil)
	}

	// numbers inside parameters stay json.Number, matching what SetParameters stores
	var doc Document
	if err := models.DecodeJSON(data, &doc); err != nil {
		return nil, malformed("payload does not match the document layout", err)
	}

	return s.Decode(doc)
}

// Decode rebuilds a graph from an already parsed document.
func (s *Serializer) Decode(doc Document) (*graph.WorkflowGraph, error) {
	if _, ok := documentSchemas[doc.Version]; !ok {
		return nil, &DecodeError{
			Code:   CodeSchemaVersionUnsupported,
			Detail: fmt.Sprintf("version %d is not supported", doc.Version),
			Err:    ErrSchemaVersionUnsupported,
		}
	}

	g, err := s.builder.Restore(doc.Nodes, doc.Connections)
	if err != nil {
		return nil, &DecodeError{
			Code:   CodeIntegrityViolation,
			Detail: err.Error(),
			Err:    ErrIntegrityViolation,
			Cause:  err,
		}
	}

	return g, nil
}
