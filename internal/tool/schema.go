package tool

import (
	"bytes"
	"encoding/json"
)

// SchemaJSON renders a Declaration's parameter list as a JSON Schema
// object document for provider adapters: if JSONSchema is already set
// it is returned unchanged (the tool author supplied an exact schema,
// typically because StrictSchema requires one provider cannot derive
// safely on its own), otherwise one is derived from Parameters.
func SchemaJSON(decl Declaration) []byte {
	if len(decl.JSONSchema) > 0 {
		return decl.JSONSchema
	}

	properties := make(map[string]any, len(decl.Parameters))
	var required []string
	for _, p := range decl.Parameters {
		properties[p.Name] = schemaFor(p.Schema)
		if p.Required {
			required = append(required, p.Name)
		}
	}

	doc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return []byte(`{"type":"object"}`)
	}
	return bytes.TrimRight(buf.Bytes(), "\n")
}

func schemaFor(s Schema) map[string]any {
	if len(s.Union) > 0 {
		var variants []map[string]any
		for _, v := range s.Union {
			variants = append(variants, schemaFor(v))
		}
		return map[string]any{"anyOf": variants}
	}

	out := map[string]any{"type": jsonSchemaType(s.Kind)}
	if s.Nullable {
		out["type"] = []string{jsonSchemaType(s.Kind), "null"}
	}
	return out
}

func jsonSchemaType(k Kind) string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindNull:
		return "null"
	default:
		return "object"
	}
}
