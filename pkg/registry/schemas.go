package registry

import (
	"fmt"
	"strings"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// ValidateParameters checks params against the JSON schema of kind. Kinds
// without a schema accept any parameters.
func (r *Registry) ValidateParameters(kind models.StepKind, params map[string]any) error {
	def, ok := r.definitions[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	if def.Schema == nil {
		return nil
	}

	if params == nil {
		params = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(def.Schema)
	dataLoader := gojsonschema.NewGoLoader(params)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("%w: schema validation failed for %s: %w", ErrInvalidParameters, kind, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("%w: %s: %s", ErrInvalidParameters, kind, strings.Join(details, "; "))
	}

	return nil
}
