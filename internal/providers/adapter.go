// Package providers implements the wire adapters for each supported
// (provider, api) pair (spec component F): translating the canonical
// AgentState into a provider request and translating the provider's
// streamed response back into canonical deltas and a finished
// AssistantMessage.
package providers

import (
	"context"

	"github.com/corehaven/agentcore/pkg/models"
)

// Request bundles everything an Adapter needs to start one turn.
type Request struct {
	State       *models.AgentState
	Tools       []ToolDeclaration
	SystemText  string
	Temperature *float64
	MaxTokens   *int
}

// ToolDeclaration is the provider-agnostic shape an adapter converts
// into its own wire tool-declaration format.
type ToolDeclaration struct {
	Name        string
	Description string
	ParametersSchema []byte // raw JSON schema
}

// StreamHandle is returned by Adapter.Stream: Next yields canonical
// events until the turn finishes, and Close releases any underlying
// connection.
type StreamHandle interface {
	Next(ctx context.Context) (models.Event, bool, error)
	Close() error
}

// Adapter is implemented once per (provider, api) pair.
type Adapter interface {
	// Name identifies the adapter for logging and the compatibility
	// matrix, e.g. "anthropic:messages" or "openai:completions".
	Name() string

	// Stream starts the turn and returns a handle that yields
	// MessageStart/Update/End and ToolCallRequest events as they
	// arrive, finishing with the completed AssistantMessage attached to
	// the final MessageEnd event.
	Stream(ctx context.Context, req Request) (StreamHandle, error)
}

// SupportsStreaming is implemented by adapters that can also be driven
// in full non-streaming mode (used as a fallback on stream-start
// failure for providers where that is viable).
type SupportsStreaming interface {
	StreamOnce(ctx context.Context, req Request) (models.Message, models.Usage, error)
}
