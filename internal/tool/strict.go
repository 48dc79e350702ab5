package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// strictValidator compiles and caches a jsonschema validator per tool
// name for tools declared with StrictSchema, so a malformed argument
// set is rejected before the tool body ever runs even when a
// provider's own function-calling validation is lax or absent.
type strictValidator struct {
	mu     sync.Mutex
	cached map[string]*jsonschema.Schema
}

func newStrictValidator() *strictValidator {
	return &strictValidator{cached: make(map[string]*jsonschema.Schema)}
}

func (v *strictValidator) compile(decl Declaration) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.cached[decl.Name]; ok {
		return s, nil
	}

	compiler := jsonschema.NewCompiler()
	schemaDoc := SchemaJSON(decl)
	resourceName := decl.Name + ".json"
	if err := compiler.AddResource(resourceName, bytes.NewReader(schemaDoc)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	v.cached[decl.Name] = schema
	return schema, nil
}

// Validate checks raw arguments against the tool's strict schema. It
// is a no-op (nil error) for tools that don't request strict
// validation.
func (v *strictValidator) Validate(decl Declaration, raw json.RawMessage) error {
	if !decl.StrictSchema {
		return nil
	}
	schema, err := v.compile(decl)
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("arguments must be valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("arguments do not match strict schema: %w", err)
	}
	return nil
}
