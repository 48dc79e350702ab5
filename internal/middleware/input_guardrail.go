package middleware

import (
	"context"
	"fmt"
	"sync"

	"github.com/corehaven/agentcore/internal/agenterr"
	"github.com/corehaven/agentcore/internal/guardrail"
	"github.com/corehaven/agentcore/pkg/models"
)

// InputGuardrailMiddleware starts chain against the most recent user
// message concurrently with the inner handler rather than gating on it
// up front - the guardrail and the first provider round-trip race.
// Nothing reaches the caller-supplied sink before the verdict is known:
// the emitter's sink is swapped for one that blocks the first event
// through it until the guardrail resolves, then forwards every event
// if the verdict passed or drops them all if it didn't. Once the inner
// handler returns, the guardrail is awaited again (it may resolve only
// after the turn has already finished) and a block propagates
// agenterr.ErrInvalidInput to the caller instead of being swallowed.
func InputGuardrailMiddleware(chain guardrail.Chain) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, turn *Turn) error {
			msg, ok := lastUserMessage(turn.State)
			if !ok {
				return next(ctx, turn)
			}

			gate := newGuardrailGate(ctx, chain, msg)
			original := turn.Emitter.Sink
			turn.Emitter.Sink = &guardrailGateSink{gate: gate, underlying: original}
			defer func() { turn.Emitter.Sink = original }()

			nextErr := next(ctx, turn)

			verdict, err := gate.await()
			if err != nil {
				return fmt.Errorf("input guardrail: %w", err)
			}
			if !verdict.Passed {
				turn.Emitter.AgentError(guardrailBlockedError{reason: verdict.Reason})
				return fmt.Errorf("%w: %s", agenterr.ErrInvalidInput, verdict.Reason)
			}
			return nextErr
		}
	}
}

// guardrailGate runs a Chain.Evaluate call in the background and lets
// any number of callers await its single result.
type guardrailGate struct {
	wg      sync.WaitGroup
	verdict guardrail.Verdict
	err     error
}

func newGuardrailGate(ctx context.Context, chain guardrail.Chain, msg models.Message) *guardrailGate {
	g := &guardrailGate{}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.verdict, g.err = chain.Evaluate(ctx, msg)
	}()
	return g
}

func (g *guardrailGate) await() (guardrail.Verdict, error) {
	g.wg.Wait()
	return g.verdict, g.err
}

// guardrailGateSink blocks the first event it sees until the guardrail
// gate resolves, then either forwards every event to the underlying
// sink (verdict passed) or drops every event (verdict blocked, or the
// guardrail itself errored) for the remainder of the turn.
type guardrailGateSink struct {
	gate       *guardrailGate
	underlying models.Sink

	once    sync.Once
	blocked bool
}

func (s *guardrailGateSink) Emit(e models.Event) {
	s.once.Do(func() {
		verdict, err := s.gate.await()
		s.blocked = err != nil || !verdict.Passed
	})
	if s.blocked {
		return
	}
	s.underlying.Emit(e)
}

func lastUserMessage(state *models.AgentState) (models.Message, bool) {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Type == models.MessageUser {
			return state.Messages[i], true
		}
	}
	return models.Message{}, false
}

type guardrailBlockedError struct{ reason string }

func (e guardrailBlockedError) Error() string { return "blocked by input guardrail: " + e.reason }
