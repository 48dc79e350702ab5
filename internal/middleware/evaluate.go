package middleware

import (
	"context"

	"github.com/corehaven/agentcore/pkg/models"
)

// EvaluateMiddleware emits AgentEvaluateStart before and
// AgentEvaluateEnd (with the final state) after the rest of the chain
// runs, regardless of whether it returned an error.
func EvaluateMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, turn *Turn) error {
			turn.Emitter.Emit(models.Event{Kind: models.EventAgentEvaluateStart, EvaluationID: turn.EvaluationID})
			err := next(ctx, turn)
			turn.Emitter.Emit(models.Event{Kind: models.EventAgentEvaluateEnd, EvaluationID: turn.EvaluationID, FinalState: turn.State})
			return err
		}
	}
}
