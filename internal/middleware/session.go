package middleware

import (
	"context"

	"github.com/corehaven/agentcore/internal/session"
	"github.com/corehaven/agentcore/pkg/models"
)

// SessionMiddleware journals the messages a turn appends to state,
// grounded on the teacher's append-on-commit session writer. If the
// compaction engine rewrote history in this turn (State.LastCompaction
// set), a compaction entry carrying the full post-compaction message
// list is written instead of a delta, matching the journal-replay
// invariant in models.Apply.
func SessionMiddleware(store session.Store, idGen func() string) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, turn *Turn) error {
			before := len(turn.State.Messages)

			err := next(ctx, turn)

			if turn.State.LastCompaction != nil {
				writeErr := store.AppendEntry(ctx, turn.SessionID, models.SessionEntry{
					ID:           idGen(),
					IsCompaction: true,
					Messages:     append([]models.Message(nil), turn.State.Messages...),
				})
				if writeErr != nil {
					turn.Emitter.AgentError(writeErr)
				}
				turn.State.LastCompaction = nil
				return err
			}

			if after := len(turn.State.Messages); after > before {
				delta := append([]models.Message(nil), turn.State.Messages[before:after]...)
				writeErr := store.AppendEntry(ctx, turn.SessionID, models.SessionEntry{
					ID:       idGen(),
					Messages: delta,
				})
				if writeErr != nil {
					turn.Emitter.AgentError(writeErr)
				}
			}
			return err
		}
	}
}
