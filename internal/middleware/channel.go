package middleware

import (
	"context"

	"github.com/corehaven/agentcore/internal/channel"
	"github.com/corehaven/agentcore/pkg/models"
)

// ChannelMiddleware streams assistant text deltas to turn.Channel as
// they are emitted, buffering just long enough to decide whether the
// message opens with the no-reply sentinel - if it does, the whole
// message is suppressed: StartStreaming is never called and
// FinishStreaming is skipped, grounded on the teacher's silent-reply
// handling in its channel dispatch layer.
func ChannelMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, turn *Turn) error {
			if turn.Channel == nil {
				return next(ctx, turn)
			}

			sink := &channelSink{ctx: ctx, ch: turn.Channel}
			original := turn.Emitter.Sink
			turn.Emitter.Sink = models.MultiSink{original, sink}
			defer func() {
				turn.Emitter.Sink = original
				_ = turn.Channel.Close(ctx)
			}()

			return next(ctx, turn)
		}
	}
}

type channelSink struct {
	ctx context.Context
	ch  channel.Channel

	buffer  string
	started bool
	silent  bool
	decided bool
}

func (s *channelSink) Emit(e models.Event) {
	if e.Role != models.RoleAssistant {
		return
	}
	switch e.Kind {
	case models.EventMessageStart:
		s.buffer, s.started, s.silent, s.decided = "", false, false, false

	case models.EventMessageUpdate:
		if e.Update != models.UpdateText || s.silent {
			return
		}
		if s.decided {
			if !s.silent {
				_ = s.ch.AppendToStream(s.ctx, e.Delta)
			}
			return
		}

		s.buffer += e.Delta
		if channel.IsSilent(s.buffer) {
			s.silent, s.decided = true, true
			return
		}
		if hasNonWhitespace(s.buffer) {
			s.decided = true
			_ = s.ch.StartStreaming(s.ctx)
			_ = s.ch.AppendToStream(s.ctx, s.buffer)
			s.started = true
		}

	case models.EventMessageEnd:
		if s.started && !s.silent {
			_ = s.ch.FinishStreaming(s.ctx)
		}
		s.buffer, s.started, s.silent, s.decided = "", false, false, false
	}
}

func hasNonWhitespace(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return true
		}
	}
	return false
}
