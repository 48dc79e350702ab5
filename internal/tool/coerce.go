package tool

import (
	"encoding/json"
	"fmt"
)

// CoerceArguments JSON-decodes raw into an object and coerces each
// declared parameter's value into its declared type, per spec §4.B:
//
//   - scalar types convert directly;
//   - a nullable/optional parameter accepts a missing key (bound to
//     nil) or a JSON null;
//   - a union accepts the first variant whose conversion succeeds,
//     trying non-null variants before null;
//   - any other type (object, array, any) passes through unchanged.
//
// A missing non-nullable key or a non-object top level is a parse
// failure.
func CoerceArguments(raw json.RawMessage, params []Parameter) (map[string]any, error) {
	trimmed := raw
	if len(trimmed) == 0 {
		trimmed = json.RawMessage("{}")
	}

	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}

	out := make(map[string]any, len(params))
	for _, p := range params {
		value, present := obj[p.Name]
		coerced, err := coerceValue(value, present, p.Schema)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		out[p.Name] = coerced
	}
	return out, nil
}

func coerceValue(value any, present bool, schema Schema) (any, error) {
	if !present {
		if schema.Nullable || schema.Kind == KindNull {
			return nil, nil
		}
		return nil, fmt.Errorf("missing required key")
	}
	if value == nil {
		if schema.Nullable || schema.Kind == KindNull || hasNullVariant(schema) {
			return nil, nil
		}
		return nil, fmt.Errorf("must not be null")
	}
	if len(schema.Union) > 0 {
		return coerceUnion(value, schema.Union)
	}
	return coerceScalar(value, schema.Kind)
}

func hasNullVariant(schema Schema) bool {
	for _, v := range schema.Union {
		if v.Kind == KindNull {
			return true
		}
	}
	return false
}

// coerceUnion tries every non-null variant in declaration order first,
// then falls back to a null variant if the value is JSON null.
func coerceUnion(value any, variants []Schema) (any, error) {
	var lastErr error
	for _, v := range variants {
		if v.Kind == KindNull {
			continue
		}
		coerced, err := coerceScalar(value, v.Kind)
		if err == nil {
			return coerced, nil
		}
		lastErr = err
	}
	for _, v := range variants {
		if v.Kind == KindNull && value == nil {
			return nil, nil
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no union variant matched")
	}
	return nil, lastErr
}

func coerceScalar(value any, kind Kind) (any, error) {
	switch kind {
	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		return s, nil
	case KindNumber:
		f, ok := value.(float64)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", value)
		}
		return f, nil
	case KindInteger:
		f, ok := value.(float64)
		if !ok {
			return nil, fmt.Errorf("expected integer, got %T", value)
		}
		if f != float64(int64(f)) {
			return nil, fmt.Errorf("expected integer, got non-integral number %v", f)
		}
		return int64(f), nil
	case KindBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", value)
		}
		return b, nil
	case KindObject, KindArray, KindAny, "":
		return value, nil
	default:
		return value, nil
	}
}
