// Package subagent provides a minimal blocking call helper used by the
// compaction engine and model-backed guardrails to get a single
// completed response out of a provider without going through the full
// middleware chain, trimmed down from the teacher's multi-agent
// orchestration package to just the one-shot call it both need.
package subagent

import (
	"context"
	"fmt"

	"github.com/corehaven/agentcore/internal/dispatch"
	"github.com/corehaven/agentcore/internal/providers"
	"github.com/corehaven/agentcore/pkg/models"
)

// Call runs a single non-streaming turn against the given provider/api
// with a synthetic one-message history and returns its text output.
func Call(ctx context.Context, d *dispatch.Dispatcher, provider, api, systemPrompt, userText string) (string, error) {
	state := models.NewAgentState()
	state.AppendMessages(models.NewUserText(userText))

	req := providers.Request{State: state, SystemText: systemPrompt}

	msg, _, err := d.DispatchNonStreaming(ctx, provider, api, req)
	if err == nil {
		return models.MessageText(msg), nil
	}

	handle, streamErr := d.Dispatch(ctx, provider, api, req)
	if streamErr != nil {
		return "", fmt.Errorf("subagent call: %w", err)
	}
	defer handle.Close()

	var final models.Message
	for {
		ev, ok, nextErr := handle.Next(ctx)
		if nextErr != nil {
			return "", fmt.Errorf("subagent call stream: %w", nextErr)
		}
		if !ok {
			break
		}
		if ev.Kind == models.EventMessageEnd && ev.Msg != nil {
			final = *ev.Msg
		}
	}
	return models.MessageText(final), nil
}
