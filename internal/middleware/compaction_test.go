package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/corehaven/agentcore/internal/compaction"
	"github.com/corehaven/agentcore/internal/events"
	"github.com/corehaven/agentcore/pkg/models"
)

type fakeSummarizer struct {
	text string
	err  error
}

func (f fakeSummarizer) GenerateSummary(ctx context.Context, messages []*compaction.Message, config *compaction.SummarizationConfig) (string, error) {
	return f.text, f.err
}

func TestCompactionMiddlewareRunsEngineBeforeNext(t *testing.T) {
	state := models.NewAgentState()
	for i := 0; i < 10; i++ {
		state.AppendMessages(models.NewUserText("padding message number to push past budget"))
	}

	engine := &compaction.Engine{
		Summarizer:  fakeSummarizer{text: "Goal: ...\nConstraints: ...\nProgress: ...\nKey Decisions: ...\nNext Steps: ...\nCritical Context: ..."},
		Config:      compaction.DefaultSummarizationConfig(),
		TokenBudget: 1,
		KeepBudget:  1,
	}

	turn := &Turn{State: state, Emitter: events.New("e1", nil)}
	nextSawCompacted := false
	handler := CompactionMiddleware(engine)(func(ctx context.Context, turn *Turn) error {
		nextSawCompacted = turn.State.Messages[0].Type == models.MessageCompactionSummary
		return nil
	})

	if err := handler(context.Background(), turn); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !nextSawCompacted {
		t.Fatal("expected next to observe the compacted state")
	}
}

func TestCompactionMiddlewareEmitsAgentErrorOnFailureAndStillCallsNext(t *testing.T) {
	state := models.NewAgentState()
	for i := 0; i < 10; i++ {
		state.AppendMessages(models.NewUserText("padding message number to push past budget"))
	}

	engine := &compaction.Engine{
		Summarizer:  fakeSummarizer{err: errors.New("provider unavailable")},
		Config:      compaction.DefaultSummarizationConfig(),
		TokenBudget: 1,
		KeepBudget:  1,
	}

	var kinds []models.EventKind
	sink := models.SinkFunc(func(e models.Event) { kinds = append(kinds, e.Kind) })
	turn := &Turn{State: state, Emitter: events.New("e1", sink)}
	nextCalled := false
	handler := CompactionMiddleware(engine)(func(ctx context.Context, turn *Turn) error {
		nextCalled = true
		return nil
	})

	if err := handler(context.Background(), turn); err != nil {
		t.Fatalf("handler should swallow the compaction failure: %v", err)
	}
	if !nextCalled {
		t.Fatal("expected next to still run after a compaction failure")
	}
	found := false
	for _, k := range kinds {
		if k == models.EventAgentError {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an AgentError event, got %v", kinds)
	}
}

func TestCompactionMiddlewareToleratesNilEngine(t *testing.T) {
	turn := &Turn{State: models.NewAgentState(), Emitter: events.New("e1", nil)}
	called := false
	handler := CompactionMiddleware(nil)(func(ctx context.Context, turn *Turn) error {
		called = true
		return nil
	})
	if err := handler(context.Background(), turn); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !called {
		t.Fatal("expected next to be called with a nil engine")
	}
}
