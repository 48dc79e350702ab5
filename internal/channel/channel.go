// Package channel defines the frontend-sink abstraction (spec component
// E): a Channel streams assistant output to whatever frontend received
// the triggering message, and carries metadata about that frontend.
package channel

import (
	"context"

	"github.com/corehaven/agentcore/pkg/models"
)

// User identifies the author of the message that triggered an
// evaluation, as reported by a Channel.
type User struct {
	ID          string
	DisplayName string
}

// Channel is the frontend sink contract every assistant turn streams
// through. Implementations must make close safe to call on every exit
// path, including error paths.
type Channel interface {
	StartStreaming(ctx context.Context) error
	AppendToStream(ctx context.Context, delta string) error
	FinishStreaming(ctx context.Context) error
	SendMessage(ctx context.Context, msg models.Message) error
	Close(ctx context.Context) error

	ChannelID() string
	IsGroup() bool
	IsPrivate() bool
	CurrentUser() *User
	SourceMessageID() string
}

// NoReplySentinel is U+2205 (∅). If the first text delta of an
// assistant message begins with this rune, the entire message is
// suppressed: StartStreaming is never called, deltas are dropped, and
// FinishStreaming is not called.
const NoReplySentinel = '∅'

// IsSilent reports whether text begins with the no-reply sentinel,
// after skipping leading whitespace. Generalizes the teacher's
// internal/reply silent-token detector from a text token to a single
// leading rune.
func IsSilent(text string) bool {
	for _, r := range text {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		case NoReplySentinel:
			return true
		default:
			return false
		}
	}
	return false
}

// MultiChannel fans every Channel call out to a fixed set of
// Channels in order, for a host that streams one evaluation to more
// than one frontend at once (for example a live UI plus a transcript
// logger). ChannelID, IsGroup, IsPrivate, CurrentUser, and
// SourceMessageID all defer to the first Channel in the set, which is
// treated as the primary/triggering one.
type MultiChannel []Channel

func (m MultiChannel) StartStreaming(ctx context.Context) error {
	return m.forEach(func(c Channel) error { return c.StartStreaming(ctx) })
}

func (m MultiChannel) AppendToStream(ctx context.Context, delta string) error {
	return m.forEach(func(c Channel) error { return c.AppendToStream(ctx, delta) })
}

func (m MultiChannel) FinishStreaming(ctx context.Context) error {
	return m.forEach(func(c Channel) error { return c.FinishStreaming(ctx) })
}

func (m MultiChannel) SendMessage(ctx context.Context, msg models.Message) error {
	return m.forEach(func(c Channel) error { return c.SendMessage(ctx, msg) })
}

func (m MultiChannel) Close(ctx context.Context) error {
	return m.forEach(func(c Channel) error { return c.Close(ctx) })
}

// forEach calls fn against every member, continuing past a failing
// member so one broken frontend doesn't stop delivery to the rest, and
// returns the first error encountered (if any) once all have run.
func (m MultiChannel) forEach(fn func(Channel) error) error {
	var first error
	for _, c := range m {
		if err := fn(c); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m MultiChannel) ChannelID() string {
	if len(m) == 0 {
		return ""
	}
	return m[0].ChannelID()
}

func (m MultiChannel) IsGroup() bool {
	if len(m) == 0 {
		return false
	}
	return m[0].IsGroup()
}

func (m MultiChannel) IsPrivate() bool {
	if len(m) == 0 {
		return false
	}
	return m[0].IsPrivate()
}

func (m MultiChannel) CurrentUser() *User {
	if len(m) == 0 {
		return nil
	}
	return m[0].CurrentUser()
}

func (m MultiChannel) SourceMessageID() string {
	if len(m) == 0 {
		return ""
	}
	return m[0].SourceMessageID()
}

var _ Channel = (MultiChannel)(nil)
