// Package dispatch implements the streaming dispatcher (spec component
// G): it selects the Adapter for a (provider, api) pair, retries a
// failed stream start with backoff, and falls back to non-streaming
// mode when a streaming-capable adapter also implements it.
package dispatch

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/corehaven/agentcore/internal/backoff"
	"github.com/corehaven/agentcore/internal/providers"
	"github.com/corehaven/agentcore/pkg/models"
)

// Key identifies one adapter registration.
type Key struct {
	Provider string
	API      string
}

// Dispatcher selects and drives the adapter registered for a turn's
// (provider, api) pair, grounded on the teacher's provider-selection
// and retry wrapper around the raw streaming call.
type Dispatcher struct {
	adapters map[Key]providers.Adapter
	policy   backoff.Policy
	attempts int
	tracer   trace.Tracer
}

// New returns a Dispatcher with the default backoff policy and the
// global OTel tracer.
func New() *Dispatcher {
	return &Dispatcher{
		adapters: make(map[Key]providers.Adapter),
		policy:   backoff.DefaultPolicy(),
		attempts: 3,
		tracer:   otel.Tracer("agentcore/dispatch"),
	}
}

// Register binds an adapter to its (provider, api) key.
func (d *Dispatcher) Register(provider, api string, adapter providers.Adapter) {
	d.adapters[Key{Provider: provider, API: api}] = adapter
}

// WithPolicy overrides the retry policy and attempt count.
func (d *Dispatcher) WithPolicy(policy backoff.Policy, attempts int) *Dispatcher {
	d.policy = policy
	d.attempts = attempts
	return d
}

// Registered reports whether an adapter has been bound to (provider,
// api), for a host's own startup validation without driving a call.
func (d *Dispatcher) Registered(provider, api string) bool {
	_, ok := d.adapters[Key{Provider: provider, API: api}]
	return ok
}

// ErrNoAdapter is returned when no adapter is registered for a
// (provider, api) pair.
type ErrNoAdapter struct {
	Provider, API string
}

func (e ErrNoAdapter) Error() string {
	return fmt.Sprintf("no adapter registered for provider=%q api=%q", e.Provider, e.API)
}

// Dispatch resolves the adapter for (provider, api), retries stream
// start with backoff, and returns a StreamHandle a caller can drain for
// canonical events. The returned span covers only the stream-start
// call; per-event spans are the TracingSink's concern.
func (d *Dispatcher) Dispatch(ctx context.Context, provider, api string, req providers.Request) (providers.StreamHandle, error) {
	adapter, ok := d.adapters[Key{Provider: provider, API: api}]
	if !ok {
		return nil, ErrNoAdapter{Provider: provider, API: api}
	}

	ctx, span := d.tracer.Start(ctx, "agentcore.dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", provider),
		attribute.String("api", api),
		attribute.String("adapter", adapter.Name()),
	)

	result, err := backoff.Retry(ctx, d.policy, d.attempts, func(attempt int) (providers.StreamHandle, error) {
		handle, err := adapter.Stream(ctx, req)
		if err != nil {
			span.AddEvent("stream_start_retry", trace.WithAttributes(attribute.Int("attempt", attempt)))
			return nil, err
		}
		return handle, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("dispatch %s/%s: %w", provider, api, err)
	}
	return result.Value, nil
}

// DispatchNonStreaming drives the SupportsStreaming fallback directly,
// for adapters that expose one and callers that prefer a single
// blocking call over draining a StreamHandle (for example, a
// guardrail classifier's own sub-agent turn).
func (d *Dispatcher) DispatchNonStreaming(ctx context.Context, provider, api string, req providers.Request) (models.Message, models.Usage, error) {
	adapter, ok := d.adapters[Key{Provider: provider, API: api}]
	if !ok {
		return models.Message{}, models.Usage{}, ErrNoAdapter{Provider: provider, API: api}
	}
	fallback, ok := adapter.(providers.SupportsStreaming)
	if !ok {
		return models.Message{}, models.Usage{}, fmt.Errorf("adapter %s does not support non-streaming mode", adapter.Name())
	}

	result, err := backoff.Retry(ctx, d.policy, d.attempts, func(attempt int) (nonStreamingResult, error) {
		msg, usage, err := fallback.StreamOnce(ctx, req)
		return nonStreamingResult{msg: msg, usage: usage}, err
	})
	if err != nil {
		return models.Message{}, models.Usage{}, fmt.Errorf("dispatch %s/%s (non-streaming): %w", provider, api, err)
	}
	return result.Value.msg, result.Value.usage, nil
}

type nonStreamingResult struct {
	msg   models.Message
	usage models.Usage
}
