package backoff

import (
	"context"
	"time"
)

// Sleep blocks for duration or until ctx is cancelled, whichever comes
// first, returning ctx.Err() in the latter case.
func Sleep(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return nil
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Wait sleeps for the policy's computed delay for the given attempt.
func (p Policy) Wait(ctx context.Context, attempt int) error {
	return Sleep(ctx, p.Compute(attempt))
}
