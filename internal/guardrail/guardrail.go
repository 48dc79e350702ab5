// Package guardrail implements input guardrails (spec component K):
// a set of checks run against the triggering input before an
// evaluation proceeds, blocking the turn if any check fails.
package guardrail

import (
	"context"
	"log/slog"

	"github.com/corehaven/agentcore/pkg/models"
)

// Verdict is the result of one guardrail check.
type Verdict struct {
	Passed bool
	Reason string
}

// Guardrail checks one message against a policy.
type Guardrail interface {
	Name() string
	Check(ctx context.Context, msg models.Message) (Verdict, error)
}

// Predicate adapts a plain function into a Guardrail, for checks that
// need no model call (length limits, banned substrings, regex
// denylists).
type Predicate struct {
	GuardName string
	Fn        func(models.Message) Verdict
}

func (p Predicate) Name() string { return p.GuardName }

func (p Predicate) Check(ctx context.Context, msg models.Message) (Verdict, error) {
	return p.Fn(msg), nil
}

// ClassifierFunc backs a model-driven guardrail: given the message
// text, it returns whether the content should be allowed. Bound to a
// sub-agent call by the caller constructing the Classifier.
type ClassifierFunc func(ctx context.Context, text string) (Verdict, error)

// Classifier is a Guardrail backed by a model call, grounded on the
// teacher's moderation-via-sub-agent pattern.
type Classifier struct {
	GuardName string
	Classify  ClassifierFunc
}

func (c Classifier) Name() string { return c.GuardName }

func (c Classifier) Check(ctx context.Context, msg models.Message) (Verdict, error) {
	return c.Classify(ctx, models.MessageText(msg))
}

// Chain runs every guardrail against msg and blocks on the first
// failure (or error, treated as a block per spec: a guardrail that
// cannot render a verdict fails closed).
type Chain struct {
	Guardrails []Guardrail
	// Logger records sub-agent/classifier failures. A nil Logger falls
	// back to slog.Default(), so a zero-value Chain{} stays usable.
	Logger *slog.Logger
}

func (c Chain) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Evaluate runs every guardrail in order, short-circuiting on first
// failure. A guardrail that errors (a classifier sub-agent call that
// failed, say) is logged and treated as a block rather than silently
// passed through.
func (c Chain) Evaluate(ctx context.Context, msg models.Message) (Verdict, error) {
	for _, g := range c.Guardrails {
		v, err := g.Check(ctx, msg)
		if err != nil {
			c.logger().Warn("guardrail check failed closed", "guardrail", g.Name(), "error", err)
			return Verdict{Passed: false, Reason: "guardrail " + g.Name() + " failed: " + err.Error()}, nil
		}
		if !v.Passed {
			return v, nil
		}
	}
	return Verdict{Passed: true}, nil
}
