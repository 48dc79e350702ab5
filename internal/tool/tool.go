// Package tool implements the tool registry and invoker (spec component
// B): tool declaration, JSON-argument parsing and coercion, and
// parallel-safe execution with start/end event emission.
package tool

import (
	"context"
	"encoding/json"

	"github.com/corehaven/agentcore/pkg/models"
)

// Kind names the JSON-schema-flavored scalar types a Parameter can
// declare. KindObject, KindArray and KindAny pass their JSON value
// through unchanged per spec §4.B ("any other type passes through
// unchanged").
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindNull    Kind = "null"
	KindAny     Kind = "any"
)

// Schema describes one parameter's declared type for coercion purposes.
// A Union with more than one entry is tried in declaration order, with
// non-null variants attempted before any KindNull variant, per spec
// §4.B's union rule.
type Schema struct {
	Kind     Kind
	Nullable bool
	Union    []Schema
}

// Nullable wraps a scalar schema so a missing key or JSON null both
// coerce to nil.
func Nullable(s Schema) Schema {
	s.Nullable = true
	return s
}

// Parameter is one named, typed entry in a tool's declared parameter
// list.
type Parameter struct {
	Name     string
	Schema   Schema
	Required bool
}

// Declaration describes a tool for registration and for adapter schema
// rendering: a name, a free-form description, a strict-schema flag,
// and a typed parameter list.
type Declaration struct {
	Name         string
	Description  string
	StrictSchema bool
	Parameters   []Parameter
	// JSONSchema is the JSON-schema-shaped parameter document handed to
	// provider adapters for tool-declaration rendering. When nil, a
	// schema is derived from Parameters.
	JSONSchema json.RawMessage
}

// Tool is a single invocable tool: a declaration plus the function
// reference that runs it. Execute receives the already JSON-decoded and
// coerced argument map produced from the raw call arguments according
// to Declaration.Parameters.
type Tool interface {
	Declaration() Declaration
	Execute(ctx context.Context, args map[string]any) (*models.ToolResult, error)
}

// Func adapts a plain function plus a declaration into a Tool.
type Func struct {
	Decl Declaration
	Run  func(ctx context.Context, args map[string]any) (*models.ToolResult, error)
}

// Declaration implements Tool.
func (f Func) Declaration() Declaration { return f.Decl }

// Execute implements Tool.
func (f Func) Execute(ctx context.Context, args map[string]any) (*models.ToolResult, error) {
	return f.Run(ctx, args)
}
