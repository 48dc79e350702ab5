package middleware

import (
	"context"
	"fmt"

	"github.com/corehaven/agentcore/internal/dispatch"
	"github.com/corehaven/agentcore/internal/providers"
	"github.com/corehaven/agentcore/internal/tool"
	"github.com/corehaven/agentcore/pkg/models"
)

// StreamingLeaf builds the innermost Handler: it runs exactly one
// provider turn through the dispatcher, translating each streamed
// event into an emitter event, appending the finished assistant
// message to state, and leaving any tool calls it carries on
// state.PendingToolCalls for the tool-call loop middleware to drain.
func StreamingLeaf(d *dispatch.Dispatcher, provider, api string, registry *tool.Registry, maxTokens *int, temperature *float64) Handler {
	return func(ctx context.Context, turn *Turn) error {
		req := providers.Request{
			State:       turn.State,
			Tools:       declarationsFor(registry),
			SystemText:  turn.SystemText,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		}

		handle, err := d.Dispatch(ctx, provider, api, req)
		if err != nil {
			turn.Emitter.AgentError(err)
			return fmt.Errorf("streaming leaf dispatch: %w", err)
		}
		defer handle.Close()

		turn.Emitter.Emit(models.Event{Kind: models.EventMessageStart, Role: models.RoleAssistant})

		var final models.Message
		for {
			ev, ok, nextErr := handle.Next(ctx)
			if nextErr != nil {
				turn.Emitter.AgentError(nextErr)
				return fmt.Errorf("streaming leaf: %w", nextErr)
			}
			if !ok {
				break
			}
			turn.Emitter.Emit(ev)
			if ev.Kind == models.EventMessageEnd && ev.Msg != nil {
				final = *ev.Msg
			}
		}

		turn.State.AppendMessages(final)
		if final.Type == models.MessageAssistant && final.Assistant != nil {
			turn.State.PendingToolCalls = final.Assistant.ToolCalls
			for _, call := range final.Assistant.ToolCalls {
				turn.Emitter.ToolCallRequest(call)
			}
		}
		return nil
	}
}

func declarationsFor(registry *tool.Registry) []providers.ToolDeclaration {
	if registry == nil {
		return nil
	}
	var out []providers.ToolDeclaration
	for _, t := range registry.List() {
		decl := t.Declaration()
		schema := tool.SchemaJSON(decl)
		out = append(out, providers.ToolDeclaration{
			Name:             decl.Name,
			Description:      decl.Description,
			ParametersSchema: schema,
		})
	}
	return out
}
