// Package agenterr defines the typed error taxonomy shared across the
// evaluation pipeline, grounded on the teacher's internal/agent/errors.go
// pattern: a Kind enum for retryability/propagation classification,
// errors.Is/errors.As-friendly wrapping, and structured fields a
// caller can log without re-parsing an error string.
package agenterr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation and retry decisions.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindAbortEvaluation   Kind = "abort_evaluation"
	KindToolArgParse      Kind = "tool_arg_parse"
	KindToolBody          Kind = "tool_body"
	KindProviderStream    Kind = "provider_stream"
	KindUnsupported       Kind = "unsupported"
	KindMissingModel      Kind = "missing_model"
	KindMissingAPIKey     Kind = "missing_api_key"
	KindMissingProject    Kind = "missing_project"
	KindMalformedSession  Kind = "malformed_session"
)

// ErrAbortEvaluation is returned by a suspension point that observes
// the abort signal after it has already fired.
var ErrAbortEvaluation = errors.New("evaluation aborted")

// ErrInvalidInput is returned when an input guardrail rejects the
// triggering message.
var ErrInvalidInput = errors.New("invalid input: blocked by guardrail")

// ToolError reports a failure from a single tool call: malformed
// arguments or a body that returned or panicked with an error. It
// never stops the tool-call loop on its own; the invoker turns it into
// an is_error=true ToolResultMessage and keeps going, but callers that
// want structured logging can inspect Kind/ToolName/CallID.
type ToolError struct {
	Kind     Kind
	ToolName string
	CallID   string
	Cause    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q (%s): %s", e.ToolName, e.Kind, e.Cause)
}

func (e *ToolError) Unwrap() error { return e.Cause }

// NewToolError builds a ToolError of the given kind.
func NewToolError(kind Kind, toolName, callID string, cause error) *ToolError {
	return &ToolError{Kind: kind, ToolName: toolName, CallID: callID, Cause: cause}
}

// AdapterError reports a failure at a provider adapter boundary: a
// precondition failure at entry (missing model/api key/project) or a
// stream-level failure (SSE parse error, provider error event).
type AdapterError struct {
	Kind     Kind
	Provider string
	API      string
	Cause    error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s:%s (%s): %s", e.Provider, e.API, e.Kind, e.Cause)
}

func (e *AdapterError) Unwrap() error { return e.Cause }

// NewAdapterError builds an AdapterError of the given kind.
func NewAdapterError(kind Kind, provider, api string, cause error) *AdapterError {
	return &AdapterError{Kind: kind, Provider: provider, API: api, Cause: cause}
}
