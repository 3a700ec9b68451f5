package manifest

import (
	"bytes"
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tailscale/hujson"
)

const schemaResourceName = "https://toolhive.stacklok.dev/schemas/marketplace.schema.json"

//go:embed schema/marketplace.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// getSchema compiles the embedded marketplace schema once and returns it.
func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaResourceName, doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(schemaResourceName)
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// ValidateSchema checks manifest bytes against the embedded marketplace schema.
// Comments and trailing commas are accepted as they are on load.
func ValidateSchema(data []byte) error {
	schema, err := getSchema()
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}

	standard, err := hujson.Standardize(slices.Clone(data))
	if err != nil {
		return fmt.Errorf("parsing manifest JSON: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(standard))
	if err != nil {
		return fmt.Errorf("parsing manifest JSON: %w", err)
	}

	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("manifest does not match schema: %w", err)
	}
	return nil
}
