package middleware

import (
	"context"

	"github.com/corehaven/agentcore/internal/abort"
)

// AbortMiddleware checks sig before calling next and returns
// abort.ErrAborted immediately if it has already fired, so a signal
// raised before this turn even started is still honored. Suspension
// points deeper in the chain (the tool-call loop, the streaming leaf)
// poll the same Signal independently rather than relying solely on
// this outer check.
func AbortMiddleware(sig *abort.Signal) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, turn *Turn) error {
			if err := sig.Check(); err != nil {
				turn.Aborted = true
				return err
			}
			return next(ctx, turn)
		}
	}
}
