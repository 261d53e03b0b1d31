package recparse

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a structural description of the documents a JSON-mode
// parser will accept: type checking, required properties, and
// per-property sub-schemas. Its fields are themselves named after the
// JSON Schema keywords they represent, so a Schema marshals directly
// into a document gojsonschema can validate against — construction is
// a small typed subset rather than a generic map[string]any builder,
// but the validation itself is real JSON Schema, not a hand-rolled
// reimplementation of it.
type Schema struct {
	Type       string             `json:"type,omitempty"`
	Required   []string           `json:"required,omitempty"`
	Properties map[string]*Schema `json:"properties,omitempty"`
}

// Validate checks v against the schema and returns a list of
// human-readable diagnostics. An empty/nil Schema validates anything.
func (s *Schema) Validate(v any) []string {
	if s == nil {
		return nil
	}

	schemaBytes, err := json.Marshal(s)
	if err != nil {
		return []string{fmt.Sprintf("$: schema could not be marshaled: %v", err)}
	}
	docBytes, err := json.Marshal(v)
	if err != nil {
		return []string{fmt.Sprintf("$: document could not be marshaled: %v", err)}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(docBytes),
	)
	if err != nil {
		return []string{fmt.Sprintf("$: %v", err)}
	}
	if result.Valid() {
		return nil
	}

	findings := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		field := e.Field()
		if field == "" || field == "(root)" {
			field = "$"
		}
		findings = append(findings, fmt.Sprintf("%s: %s", field, e.Description()))
	}
	return findings
}
