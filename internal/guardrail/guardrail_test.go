package guardrail

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/corehaven/agentcore/pkg/models"
)

func TestChainPassesWhenAllGuardrailsPass(t *testing.T) {
	chain := Chain{Guardrails: []Guardrail{
		Predicate{GuardName: "length", Fn: func(models.Message) Verdict { return Verdict{Passed: true} }},
		Predicate{GuardName: "denylist", Fn: func(models.Message) Verdict { return Verdict{Passed: true} }},
	}}
	v, err := chain.Evaluate(context.Background(), models.NewUserText("hi"))
	if err != nil || !v.Passed {
		t.Fatalf("expected pass, got %+v, %v", v, err)
	}
}

func TestChainBlocksOnFirstFailure(t *testing.T) {
	calledSecond := false
	chain := Chain{Guardrails: []Guardrail{
		Predicate{GuardName: "length", Fn: func(models.Message) Verdict { return Verdict{Passed: false, Reason: "too long"} }},
		Predicate{GuardName: "denylist", Fn: func(models.Message) Verdict { calledSecond = true; return Verdict{Passed: true} }},
	}}
	v, err := chain.Evaluate(context.Background(), models.NewUserText("hi"))
	if err != nil || v.Passed {
		t.Fatalf("expected block, got %+v, %v", v, err)
	}
	if calledSecond {
		t.Fatalf("expected short-circuit, second guardrail should not run")
	}
}

func TestChainFailsClosedOnClassifierError(t *testing.T) {
	chain := Chain{Guardrails: []Guardrail{
		Classifier{GuardName: "moderation", Classify: func(ctx context.Context, text string) (Verdict, error) {
			return Verdict{}, errors.New("model unavailable")
		}},
	}}
	v, err := chain.Evaluate(context.Background(), models.NewUserText("hi"))
	if err != nil {
		t.Fatalf("Chain.Evaluate should not itself error: %v", err)
	}
	if v.Passed {
		t.Fatalf("expected fail-closed verdict on classifier error")
	}
}

func TestChainLogsClassifierErrors(t *testing.T) {
	var buf bytes.Buffer
	chain := Chain{
		Logger: slog.New(slog.NewTextHandler(&buf, nil)),
		Guardrails: []Guardrail{
			Classifier{GuardName: "moderation", Classify: func(ctx context.Context, text string) (Verdict, error) {
				return Verdict{}, errors.New("model unavailable")
			}},
		},
	}
	if _, err := chain.Evaluate(context.Background(), models.NewUserText("hi")); err != nil {
		t.Fatalf("Chain.Evaluate should not itself error: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("guardrail=moderation")) {
		t.Fatalf("expected the failing guardrail's name in the log output, got: %s", buf.String())
	}
}
