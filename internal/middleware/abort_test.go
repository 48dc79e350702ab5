package middleware

import (
	"context"
	"testing"

	"github.com/corehaven/agentcore/internal/abort"
)

func TestAbortMiddlewarePassesThroughWhenNotAborted(t *testing.T) {
	sig := abort.New()
	turn := &Turn{}
	called := false
	handler := AbortMiddleware(sig)(func(ctx context.Context, turn *Turn) error {
		called = true
		return nil
	})

	if err := handler(context.Background(), turn); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !called {
		t.Fatal("expected next to be called when the signal has not fired")
	}
	if turn.Aborted {
		t.Fatal("expected Aborted to remain false")
	}
}

func TestAbortMiddlewareShortCircuitsWhenAlreadyAborted(t *testing.T) {
	sig := abort.New()
	sig.Abort()
	turn := &Turn{}
	called := false
	handler := AbortMiddleware(sig)(func(ctx context.Context, turn *Turn) error {
		called = true
		return nil
	})

	err := handler(context.Background(), turn)
	if err == nil {
		t.Fatal("expected an error once the signal has fired")
	}
	if called {
		t.Fatal("expected next not to be called once the signal has fired")
	}
	if !turn.Aborted {
		t.Fatal("expected turn.Aborted to be set")
	}
}
