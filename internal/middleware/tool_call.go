package middleware

import (
	"context"
	"sync"

	"github.com/corehaven/agentcore/internal/abort"
	"github.com/corehaven/agentcore/internal/tool"
	"github.com/corehaven/agentcore/pkg/models"
)

// DefaultMaxToolCallIterations bounds the tool-call loop so a model
// that keeps requesting tools can never run the pipeline forever.
const DefaultMaxToolCallIterations = 25

// ToolCallMiddleware implements the tool-call loop (spec component I):
// it repeatedly calls next for one provider turn, bracketing each
// iteration with a TurnStart/TurnEnd event pair, and whenever a turn
// leaves pending tool calls on the state, dispatches them - in
// parallel, bounded by maxConcurrency, with results reassembled in
// call order - appends the resulting ToolResultMessages, clears the
// pending edge, and loops for another turn. It stops once a turn
// leaves no pending calls or the iteration cap is hit. sig, if
// non-nil, is polled at the top of each iteration and between each
// tool-result await so a mid-turn abort interrupts the loop instead of
// waiting out every in-flight tool.
func ToolCallMiddleware(invoker *tool.Invoker, sig *abort.Signal, idGen func() string, maxConcurrency, maxIterations int) Middleware {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxToolCallIterations
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 8
	}
	if idGen == nil {
		idGen = func() string { return "" }
	}

	return func(next Handler) Handler {
		return func(ctx context.Context, turn *Turn) error {
			for iter := 0; iter < maxIterations; iter++ {
				if sig != nil {
					if err := sig.Check(); err != nil {
						turn.Aborted = true
						return err
					}
				}

				turnID := idGen()
				turn.Emitter.TurnStart(turnID)

				if err := next(ctx, turn); err != nil {
					turn.Emitter.TurnEnd(turnID, lastAssistantMessage(turn.State), err)
					return err
				}

				pending := turn.State.PendingToolCalls
				if len(pending) == 0 {
					turn.Emitter.TurnEnd(turnID, lastAssistantMessage(turn.State), nil)
					return nil
				}
				turn.State.PendingToolCalls = nil

				results, err := dispatchToolCalls(ctx, invoker, pending, maxConcurrency, sig)
				if err != nil {
					turn.Aborted = true
					turn.Emitter.TurnEnd(turnID, lastAssistantMessage(turn.State), err)
					return err
				}
				turn.State.AppendMessages(results...)
				turn.Emitter.TurnEnd(turnID, lastAssistantMessage(turn.State), nil)
			}
			return nil
		}
	}
}

// lastAssistantMessage returns a pointer to the most recent assistant
// message in state, or nil if none has been committed yet.
func lastAssistantMessage(state *models.AgentState) *models.Message {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Type == models.MessageAssistant {
			return &state.Messages[i]
		}
	}
	return nil
}

// dispatchToolCalls starts every pending call concurrently (bounded by
// maxConcurrency) but awaits their results in call order, so the
// result list matches the order calls appeared in the assistant
// message regardless of completion order. sig, if non-nil, is checked
// before each await; on abort the remaining futures are abandoned
// (not awaited) and the abort error is returned.
func dispatchToolCalls(ctx context.Context, invoker *tool.Invoker, calls []models.ToolCall, maxConcurrency int, sig *abort.Signal) ([]models.Message, error) {
	sem := make(chan struct{}, maxConcurrency)
	resultCh := make([]chan models.Message, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		resultCh[i] = make(chan models.Message, 1)
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, call models.ToolCall) {
			defer wg.Done()
			defer func() { <-sem }()
			resultCh[i] <- invoker.Invoke(ctx, call)
		}(i, call)
	}

	results := make([]models.Message, len(calls))
	for i, ch := range resultCh {
		if sig != nil {
			if err := sig.Check(); err != nil {
				return nil, err
			}
		}
		results[i] = <-ch
	}
	wg.Wait()
	return results, nil
}
