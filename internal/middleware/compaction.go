package middleware

import (
	"context"

	"github.com/corehaven/agentcore/internal/compaction"
)

// CompactionMiddleware runs the compaction engine before calling next,
// so the streaming leaf always sees a state within budget. A
// compaction failure is logged via AgentError and the turn proceeds
// with the uncompacted (but otherwise valid) state rather than
// blocking the turn entirely.
func CompactionMiddleware(engine *compaction.Engine) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, turn *Turn) error {
			if engine != nil {
				if err := engine.Compact(ctx, turn.State); err != nil {
					turn.Emitter.AgentError(err)
				}
			}
			return next(ctx, turn)
		}
	}
}
