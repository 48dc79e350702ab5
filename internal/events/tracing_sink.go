package events

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/corehaven/agentcore/pkg/models"
)

// TracingSink maps the turn and tool-call event pairs onto OpenTelemetry
// spans: one span per turn, one child span per tool call, closed when
// the matching *End event arrives. Grounded on the teacher's
// dispatch-span wrapping, generalized from a single provider-call span
// to the full turn/tool-call event pairing.
type TracingSink struct {
	tracer trace.Tracer

	mu    sync.Mutex
	turns map[string]turnSpan
	calls map[string]trace.Span
}

type turnSpan struct {
	ctx  context.Context
	span trace.Span
}

// NewTracingSink returns a sink that starts spans on the given tracer.
func NewTracingSink(tracer trace.Tracer) *TracingSink {
	return &TracingSink{
		tracer: tracer,
		turns:  make(map[string]turnSpan),
		calls:  make(map[string]trace.Span),
	}
}

// Emit implements models.Sink.
func (s *TracingSink) Emit(e models.Event) {
	switch e.Kind {
	case models.EventTurnStart:
		ctx, span := s.tracer.Start(context.Background(), "agentcore.turn")
		span.SetAttributes(attribute.String("turn_id", e.TurnID))
		s.mu.Lock()
		s.turns[e.TurnID] = turnSpan{ctx: ctx, span: span}
		s.mu.Unlock()

	case models.EventTurnEnd:
		s.mu.Lock()
		ts, ok := s.turns[e.TurnID]
		delete(s.turns, e.TurnID)
		s.mu.Unlock()
		if !ok {
			return
		}
		if e.TurnErr != nil {
			ts.span.RecordError(e.TurnErr)
			ts.span.SetStatus(codes.Error, e.TurnErr.Error())
		}
		ts.span.End()

	case models.EventToolExecutionStart:
		if e.ToolCall == nil {
			return
		}
		_, span := s.tracer.Start(context.Background(), "agentcore.tool_call")
		span.SetAttributes(
			attribute.String("tool.call_id", e.ToolCall.CallID),
			attribute.String("tool.name", e.ToolCall.Name),
		)
		s.mu.Lock()
		s.calls[e.ToolCall.CallID] = span
		s.mu.Unlock()

	case models.EventToolExecutionEnd:
		if e.ToolCall == nil {
			return
		}
		s.mu.Lock()
		span, ok := s.calls[e.ToolCall.CallID]
		delete(s.calls, e.ToolCall.CallID)
		s.mu.Unlock()
		if !ok {
			return
		}
		if e.ToolResult != nil && e.ToolResult.IsError {
			span.SetStatus(codes.Error, "tool returned an error result")
		}
		span.End()
	}
}
