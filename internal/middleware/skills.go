package middleware

import (
	"context"

	"github.com/corehaven/agentcore/internal/skill"
)

// SkillsMiddleware renders the active skill registry and appends it to
// the turn's system text before calling next, so every downstream
// middleware (and ultimately the streaming leaf) sees it.
func SkillsMiddleware(registry *skill.Registry) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, turn *Turn) error {
			turn.AppendSystemText(registry.RenderXML())
			return next(ctx, turn)
		}
	}
}
