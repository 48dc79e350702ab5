package events

import (
	"testing"

	"github.com/corehaven/agentcore/pkg/models"
)

func TestEmitterStampsEvaluationIDAndTime(t *testing.T) {
	var got models.Event
	e := New("eval-1", models.SinkFunc(func(ev models.Event) { got = ev }))

	e.TurnStart("turn-1")

	if got.EvaluationID != "eval-1" {
		t.Fatalf("EvaluationID = %q", got.EvaluationID)
	}
	if got.Time.IsZero() {
		t.Fatalf("expected Time to be stamped")
	}
	if got.Kind != models.EventTurnStart || got.TurnID != "turn-1" {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestEmitterSequenceIncrements(t *testing.T) {
	e := New("eval-1", models.NopSink{})
	e.TurnStart("t1")
	e.TurnEnd("t1", nil, nil)
	e.AgentError(nil)

	if e.Sequence() != 3 {
		t.Fatalf("Sequence = %d, want 3", e.Sequence())
	}
}

func TestStatsCollectorAccumulatesToolAndTurnCounts(t *testing.T) {
	c := NewStatsCollector()
	c.Emit(models.Event{Kind: models.EventTurnEnd})
	c.Emit(models.Event{
		Kind:       models.EventToolExecutionEnd,
		ToolCall:   &models.ToolCall{Name: "echo"},
		ToolResult: &models.ToolResultMessage{IsError: true},
		DurationMS: 42,
	})
	c.Emit(models.Event{Kind: models.EventAgentError})

	snap := c.Snapshot()
	if snap.Turns != 1 || snap.ToolCalls != 1 || snap.ToolErrors != 1 || snap.Errors != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(snap.ToolDurations) != 1 || snap.ToolDurations[0] != 42 {
		t.Fatalf("unexpected durations: %v", snap.ToolDurations)
	}
}
