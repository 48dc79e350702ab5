package middleware

import (
	"context"

	"github.com/corehaven/agentcore/pkg/models"
)

// SteerSource supplies steering messages a user sent while a turn was
// already in flight - out-of-band input that should be folded into the
// conversation before the next provider call rather than queued for a
// separate turn. Drain must be non-blocking and return immediately with
// whatever is currently buffered.
type SteerSource interface {
	Drain() []models.Message
}

// SteerMiddleware folds any pending steering messages into state ahead
// of the compaction/streaming stages, grounded on the teacher's
// mid-turn interjection handling.
func SteerMiddleware(source SteerSource) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, turn *Turn) error {
			if source != nil {
				if pending := source.Drain(); len(pending) > 0 {
					turn.State.AppendMessages(pending...)
				}
			}
			return next(ctx, turn)
		}
	}
}
