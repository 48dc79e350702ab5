package models

import "time"

// EventKind discriminates the event taxonomy delivered through an
// EventSink. See spec §6.
type EventKind string

const (
	EventAgentEvaluateStart EventKind = "agent_evaluate_start"
	EventAgentEvaluateEnd   EventKind = "agent_evaluate_end"
	EventTurnStart          EventKind = "turn_start"
	EventTurnEnd            EventKind = "turn_end"
	EventMessageStart       EventKind = "message_start"
	EventMessageUpdate      EventKind = "message_update"
	EventMessageEnd         EventKind = "message_end"
	EventToolCallRequest    EventKind = "tool_call_request"
	EventToolExecutionStart EventKind = "tool_execution_start"
	EventToolExecutionEnd   EventKind = "tool_execution_end"
	EventAgentError         EventKind = "agent_error"
)

// UpdateKind narrows an EventMessageUpdate event to the kind of delta
// being streamed.
type UpdateKind string

const (
	UpdateText          UpdateKind = "text"
	UpdateReasoning     UpdateKind = "reasoning"
	UpdateToolArguments UpdateKind = "tool_arguments"
	UpdateRefusal       UpdateKind = "refusal"
)

// MessageRole narrows events to the role of the message they describe.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Event is the single envelope type delivered to an EventSink. Exactly
// the fields relevant to Kind are populated; the rest are zero.
type Event struct {
	Kind EventKind
	Time time.Time

	// AgentEvaluateStart / AgentEvaluateEnd
	EvaluationID string
	FinalState   *AgentState // AgentEvaluateEnd only

	// TurnStart / TurnEnd
	TurnID             string
	LastAssistantMsg   *Message // TurnEnd only, nil if the turn had none
	TurnErr            error    // TurnEnd only, optional

	// MessageStart / MessageUpdate / MessageEnd
	Role    MessageRole
	Msg     *Message
	Update  UpdateKind
	Delta   string
	ItemID  string

	// ToolCallRequest
	PendingCall *ToolCall

	// ToolExecutionStart / ToolExecutionEnd
	ToolCall   *ToolCall
	ToolResult *ToolResultMessage
	DurationMS int64

	// AgentError
	Err error
}

// Sink consumes events emitted by the evaluation pipeline. Emit must be
// safe to call from the emitter's goroutine; implementations that need
// to do blocking work should not block the emitter indefinitely.
type Sink interface {
	Emit(e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e Event)

// Emit implements Sink.
func (f SinkFunc) Emit(e Event) { f(e) }

// NopSink discards every event.
type NopSink struct{}

// Emit implements Sink.
func (NopSink) Emit(Event) {}

// MultiSink fans one event stream out to several sinks in order.
type MultiSink []Sink

// Emit implements Sink.
func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}
