// Package events implements the evaluation pipeline's event emitter
// (spec component C): a thin sequencing layer over models.Sink that
// stamps every event with its evaluation id and wall-clock time before
// fanning it out.
package events

import (
	"sync/atomic"
	"time"

	"github.com/corehaven/agentcore/pkg/models"
)

// Emitter wraps a models.Sink, stamping EvaluationID and Time onto
// every event and keeping a monotonic sequence counter an observer can
// use to detect drops or reordering, grounded on the teacher's
// event-emitter sequencing.
type Emitter struct {
	EvaluationID string
	Sink         models.Sink
	seq          atomic.Int64
}

// New returns an Emitter bound to a single evaluation run. A nil sink
// is replaced with models.NopSink.
func New(evaluationID string, sink models.Sink) *Emitter {
	if sink == nil {
		sink = models.NopSink{}
	}
	return &Emitter{EvaluationID: evaluationID, Sink: sink}
}

// Sequence returns the number of events emitted so far through this
// emitter.
func (e *Emitter) Sequence() int64 { return e.seq.Load() }

// Emit stamps and forwards an event.
func (e *Emitter) Emit(ev models.Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	if ev.EvaluationID == "" {
		ev.EvaluationID = e.EvaluationID
	}
	e.seq.Add(1)
	e.Sink.Emit(ev)
}

// EvaluateStart emits the start-of-evaluation event.
func (e *Emitter) EvaluateStart() {
	e.Emit(models.Event{Kind: models.EventAgentEvaluateStart})
}

// EvaluateEnd emits the end-of-evaluation event with the final state.
func (e *Emitter) EvaluateEnd(final *models.AgentState) {
	e.Emit(models.Event{Kind: models.EventAgentEvaluateEnd, FinalState: final})
}

// TurnStart emits the start-of-turn event.
func (e *Emitter) TurnStart(turnID string) {
	e.Emit(models.Event{Kind: models.EventTurnStart, TurnID: turnID})
}

// TurnEnd emits the end-of-turn event.
func (e *Emitter) TurnEnd(turnID string, lastAssistant *models.Message, turnErr error) {
	e.Emit(models.Event{Kind: models.EventTurnEnd, TurnID: turnID, LastAssistantMsg: lastAssistant, TurnErr: turnErr})
}

// MessageStart emits the start of a streamed message.
func (e *Emitter) MessageStart(role models.MessageRole, itemID string) {
	e.Emit(models.Event{Kind: models.EventMessageStart, Role: role, ItemID: itemID})
}

// MessageUpdate emits one streamed delta.
func (e *Emitter) MessageUpdate(role models.MessageRole, kind models.UpdateKind, delta, itemID string) {
	e.Emit(models.Event{Kind: models.EventMessageUpdate, Role: role, Update: kind, Delta: delta, ItemID: itemID})
}

// MessageEnd emits the completed message.
func (e *Emitter) MessageEnd(role models.MessageRole, msg models.Message, itemID string) {
	e.Emit(models.Event{Kind: models.EventMessageEnd, Role: role, Msg: &msg, ItemID: itemID})
}

// ToolCallRequest emits a tool call the assistant has requested.
func (e *Emitter) ToolCallRequest(call models.ToolCall) {
	e.Emit(models.Event{Kind: models.EventToolCallRequest, PendingCall: &call})
}

// AgentError emits a non-fatal or fatal pipeline error.
func (e *Emitter) AgentError(err error) {
	e.Emit(models.Event{Kind: models.EventAgentError, Err: err})
}
