// Package middleware implements the evaluation pipeline's middleware
// chain (spec component H) and the tool-call loop middleware (spec
// component I). Each middleware wraps a Handler, producing a new
// Handler that runs before and/or after calling the wrapped one -
// composition order is outer-to-inner in the order middlewares are
// passed to Compose.
package middleware

import (
	"context"

	"github.com/corehaven/agentcore/internal/channel"
	"github.com/corehaven/agentcore/internal/events"
	"github.com/corehaven/agentcore/pkg/models"
)

// Turn carries everything a middleware needs: the mutable state for
// this evaluation, the channel streaming output to the frontend, and
// the emitter events are published through. Middlewares read and
// mutate State in place; the final written State is what the caller
// observes once Handler returns.
type Turn struct {
	State        *models.AgentState
	Channel      channel.Channel
	Emitter      *events.Emitter
	EvaluationID string
	SessionID    string

	// SystemText accumulates instruction text contributed by
	// middlewares (skills, steering) before the streaming leaf builds
	// the provider request.
	SystemText string

	// Aborted is set by the abort middleware when cancellation has been
	// observed; later middlewares should check it at their own
	// suspension points rather than relying solely on ctx.Done().
	Aborted bool
}

// AppendSystemText appends a section to the turn's accumulated system
// text, separated by a blank line from anything already present.
func (t *Turn) AppendSystemText(section string) {
	if section == "" {
		return
	}
	if t.SystemText == "" {
		t.SystemText = section
		return
	}
	t.SystemText = t.SystemText + "\n\n" + section
}

// Handler runs one step of the pipeline for a turn.
type Handler func(ctx context.Context, turn *Turn) error

// Middleware wraps a Handler to produce a new Handler.
type Middleware func(next Handler) Handler

// Compose builds the final Handler by wrapping leaf with each
// middleware in order: the first middleware in the slice is
// outermost, so it runs first and last; leaf runs innermost.
func Compose(leaf Handler, mws ...Middleware) Handler {
	h := leaf
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
