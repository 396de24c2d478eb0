package ai

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// SchemaKind names one of the payload shapes the model is asked to emit.
type SchemaKind string

const (
	SchemaOutline SchemaKind = "outline"
	SchemaChapter SchemaKind = "chapter"
	SchemaSummary SchemaKind = "summary"
)

var schemaKinds = []SchemaKind{SchemaOutline, SchemaChapter, SchemaSummary}

// SchemaValidator checks model payloads against the embedded JSON schemas.
// Schemas are compiled once and are safe for concurrent use.
type SchemaValidator struct {
	schemas map[SchemaKind]*gojsonschema.Schema
}

func NewSchemaValidator() (*SchemaValidator, error) {
	v := &SchemaValidator{schemas: make(map[SchemaKind]*gojsonschema.Schema, len(schemaKinds))}
	for _, kind := range schemaKinds {
		content, err := schemaFS.ReadFile("schemas/" + string(kind) + ".json")
		if err != nil {
			return nil, fmt.Errorf("failed to read %s schema: %w", kind, err)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(string(content)))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", kind, err)
		}
		v.schemas[kind] = schema
	}
	return v, nil
}

// Validate returns nil when doc satisfies the schema for kind. Violations are
// reported as a single error listing each offending field.
func (v *SchemaValidator) Validate(kind SchemaKind, doc string) error {
	schema, ok := v.schemas[kind]
	if !ok {
		return fmt.Errorf("unknown schema %q", kind)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		problems = append(problems, field+": "+desc.Description())
	}
	return fmt.Errorf("%s schema violation: %s", kind, strings.Join(problems, "; "))
}
