package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/corehaven/agentcore/internal/events"
	"github.com/corehaven/agentcore/pkg/models"
)

func TestEvaluateMiddlewareEmitsStartAndEndAroundNext(t *testing.T) {
	var kinds []models.EventKind
	sink := models.SinkFunc(func(e models.Event) { kinds = append(kinds, e.Kind) })

	turn := &Turn{EvaluationID: "eval-1", Emitter: events.New("eval-1", sink), State: models.NewAgentState()}
	nextCalled := false
	handler := EvaluateMiddleware()(func(ctx context.Context, turn *Turn) error {
		nextCalled = true
		return nil
	})

	if err := handler(context.Background(), turn); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !nextCalled {
		t.Fatal("expected next to be called")
	}
	if len(kinds) != 2 || kinds[0] != models.EventAgentEvaluateStart || kinds[1] != models.EventAgentEvaluateEnd {
		t.Fatalf("unexpected event sequence: %v", kinds)
	}
}

func TestEvaluateMiddlewareEmitsEndEvenOnError(t *testing.T) {
	var kinds []models.EventKind
	sink := models.SinkFunc(func(e models.Event) { kinds = append(kinds, e.Kind) })

	turn := &Turn{EvaluationID: "eval-1", Emitter: events.New("eval-1", sink), State: models.NewAgentState()}
	wantErr := errors.New("boom")
	handler := EvaluateMiddleware()(func(ctx context.Context, turn *Turn) error {
		return wantErr
	})

	if err := handler(context.Background(), turn); err != wantErr {
		t.Fatalf("expected the wrapped error to propagate, got %v", err)
	}
	if len(kinds) != 2 || kinds[1] != models.EventAgentEvaluateEnd {
		t.Fatalf("expected EvaluateEnd to still be emitted on error, got %v", kinds)
	}
}
