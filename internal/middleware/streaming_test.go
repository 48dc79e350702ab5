package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/corehaven/agentcore/internal/dispatch"
	"github.com/corehaven/agentcore/internal/events"
	"github.com/corehaven/agentcore/internal/providers"
	"github.com/corehaven/agentcore/internal/tool"
	"github.com/corehaven/agentcore/pkg/models"
)

type scriptedHandle struct {
	events []models.Event
	pos    int
	err    error
}

func (h *scriptedHandle) Next(ctx context.Context) (models.Event, bool, error) {
	if h.err != nil {
		return models.Event{}, false, h.err
	}
	if h.pos >= len(h.events) {
		return models.Event{}, false, nil
	}
	ev := h.events[h.pos]
	h.pos++
	return ev, true, nil
}

func (h *scriptedHandle) Close() error { return nil }

type scriptedAdapter struct {
	events  []models.Event
	err     error
	dialErr error
}

func (scriptedAdapter) Name() string { return "fake:test" }

func (a scriptedAdapter) Stream(ctx context.Context, req providers.Request) (providers.StreamHandle, error) {
	if a.dialErr != nil {
		return nil, a.dialErr
	}
	return &scriptedHandle{events: a.events, err: a.err}, nil
}

func TestStreamingLeafAppendsFinalMessageAndPendingToolCalls(t *testing.T) {
	final := models.NewAssistantMessage("fake", "test", "fake-model")
	final.Assistant.AppendText("hi there")
	final.Assistant.ToolCalls = []models.ToolCall{{CallID: "c1", Name: "search"}}

	d := dispatch.New()
	d.Register("fake", "test", scriptedAdapter{events: []models.Event{
		{Kind: models.EventMessageUpdate, Role: models.RoleAssistant, Update: models.UpdateText, Delta: "hi there"},
		{Kind: models.EventMessageEnd, Role: models.RoleAssistant, Msg: &final},
	}})

	var toolRequests []models.ToolCall
	sink := models.SinkFunc(func(e models.Event) {
		if e.Kind == models.EventToolCallRequest {
			toolRequests = append(toolRequests, *e.PendingCall)
		}
	})

	turn := &Turn{State: models.NewAgentState(), Emitter: events.New("e1", sink)}
	leaf := StreamingLeaf(d, "fake", "test", tool.NewRegistry(), nil, nil)

	if err := leaf(context.Background(), turn); err != nil {
		t.Fatalf("leaf: %v", err)
	}
	if len(turn.State.Messages) != 1 || models.MessageText(turn.State.Messages[0]) != "hi there" {
		t.Fatalf("expected the final assistant message appended, got %+v", turn.State.Messages)
	}
	if len(turn.State.PendingToolCalls) != 1 || turn.State.PendingToolCalls[0].CallID != "c1" {
		t.Fatalf("expected the pending tool call carried onto state, got %+v", turn.State.PendingToolCalls)
	}
	if len(toolRequests) != 1 {
		t.Fatalf("expected a ToolCallRequest event emitted, got %d", len(toolRequests))
	}
}

func TestStreamingLeafReturnsErrorOnDispatchFailure(t *testing.T) {
	d := dispatch.New()
	d.Register("fake", "test", scriptedAdapter{dialErr: errors.New("provider unreachable")})

	var sawAgentError bool
	sink := models.SinkFunc(func(e models.Event) {
		if e.Kind == models.EventAgentError {
			sawAgentError = true
		}
	})
	turn := &Turn{State: models.NewAgentState(), Emitter: events.New("e1", sink)}
	leaf := StreamingLeaf(d, "fake", "test", tool.NewRegistry(), nil, nil)

	if err := leaf(context.Background(), turn); err == nil {
		t.Fatal("expected dispatch failure to propagate")
	}
	if !sawAgentError {
		t.Fatal("expected an AgentError event emitted on dispatch failure")
	}
}

func TestStreamingLeafReturnsErrorOnStreamFailure(t *testing.T) {
	d := dispatch.New()
	d.Register("fake", "test", scriptedAdapter{err: errors.New("stream broke")})

	turn := &Turn{State: models.NewAgentState(), Emitter: events.New("e1", nil)}
	leaf := StreamingLeaf(d, "fake", "test", tool.NewRegistry(), nil, nil)

	if err := leaf(context.Background(), turn); err == nil {
		t.Fatal("expected the stream error to propagate")
	}
}
