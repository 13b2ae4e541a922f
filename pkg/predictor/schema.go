package predictor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/healthalyze/healthalyze_backend/pkg/risk"
)

const responseSchemaURL = "schema://predictor/response.json"

var (
	responseSchemaOnce sync.Once
	responseSchema     *jsonschema.Schema
	responseSchemaErr  error
)

func responseSchemaDefinition() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"stroke_probability", "risk_level", "advice"},
		"properties": map[string]any{
			"stroke_probability": map[string]any{"type": "number", "minimum": 0, "maximum": 100},
			"risk_level": map[string]any{
				"type": "string",
				"enum": lo.Map(risk.Levels(), func(l risk.Level, _ int) any { return string(l) }),
			},
			"advice": map[string]any{"type": "string"},
		},
	}
}

// compiledResponseSchema compiles the response contract once.
func compiledResponseSchema() (*jsonschema.Schema, error) {
	responseSchemaOnce.Do(func() {
		// The compiler wants a plain decoded JSON value.
		raw, err := json.Marshal(responseSchemaDefinition())
		if err != nil {
			responseSchemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		def, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			responseSchemaErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(responseSchemaURL, def); err != nil {
			responseSchemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		responseSchema, responseSchemaErr = c.Compile(responseSchemaURL)
	})
	return responseSchema, responseSchemaErr
}

// validateResponse checks raw against the response contract.
func validateResponse(raw []byte) error {
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	schema, err := compiledResponseSchema()
	if err != nil {
		return fmt.Errorf("compile response schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
