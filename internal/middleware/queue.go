package middleware

import (
	"context"
	"sync"

	"github.com/corehaven/agentcore/pkg/models"
)

// Queue buffers turn-inputs that arrive for a session while an
// evaluation for that session is already running, so "more messages
// arrived while we were thinking" turns into additional passes through
// the inner handler instead of a second concurrent evaluation racing
// the first. Grounded on the teacher's follow-up-message coalescing
// around its evaluation entrypoint.
type Queue struct {
	mu      sync.Mutex
	pending map[string][]models.Message
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{pending: make(map[string][]models.Message)}
}

// Enqueue appends a turn-input for sessionID to be folded into the
// conversation and run once the in-flight evaluation for that session
// returns.
func (q *Queue) Enqueue(sessionID string, input models.Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[sessionID] = append(q.pending[sessionID], input)
}

// Drain removes and returns every turn-input queued for sessionID.
func (q *Queue) Drain(sessionID string) []models.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending := q.pending[sessionID]
	delete(q.pending, sessionID)
	return pending
}

// Middleware returns the queue middleware (spec component H, step 1):
// after the inner handler returns for the triggering input, it drains
// whatever arrived for the session in the meantime and runs the inner
// handler again once per queued item, each appended to state before
// its own pass so later queued items see earlier ones.
func (q *Queue) Middleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, turn *Turn) error {
			if err := next(ctx, turn); err != nil {
				return err
			}
			for _, queued := range q.Drain(turn.SessionID) {
				turn.State.AppendMessages(queued)
				if err := next(ctx, turn); err != nil {
					return err
				}
			}
			return nil
		}
	}
}
