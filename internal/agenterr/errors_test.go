package agenterr

import (
	"errors"
	"testing"
)

func TestToolErrorWrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := NewToolError(KindToolBody, "search", "call-1", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to see through to cause")
	}
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("expected errors.As to recover *ToolError")
	}
	if te.ToolName != "search" || te.CallID != "call-1" || te.Kind != KindToolBody {
		t.Fatalf("unexpected fields: %+v", te)
	}
}

func TestAdapterErrorWrapsCause(t *testing.T) {
	cause := errors.New("missing key")
	err := NewAdapterError(KindMissingAPIKey, "anthropic", "messages", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to see through to cause")
	}
	var ae *AdapterError
	if !errors.As(err, &ae) {
		t.Fatalf("expected errors.As to recover *AdapterError")
	}
	if ae.Provider != "anthropic" || ae.API != "messages" || ae.Kind != KindMissingAPIKey {
		t.Fatalf("unexpected fields: %+v", ae)
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	if errors.Is(ErrAbortEvaluation, ErrInvalidInput) {
		t.Fatal("sentinels must not compare equal")
	}
}
