package tool

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/corehaven/agentcore/internal/agenterr"
	"github.com/corehaven/agentcore/pkg/models"
)

// maxRawArgsInError bounds how much of the raw arguments string is
// echoed back into a parse-failure result, per spec §4.B.
const maxRawArgsInError = 500

// Invoker runs tool calls against a Registry, handling argument parse
// failures and execution errors by turning both into an error
// ToolResultMessage rather than propagating into the evaluation loop.
type Invoker struct {
	Registry *Registry
	Sink     models.Sink
	Logger   *slog.Logger
	strict   *strictValidator
}

// NewInvoker returns an Invoker backed by the given registry. A nil
// sink is replaced with models.NopSink, and a nil logger discards.
func NewInvoker(registry *Registry, sink models.Sink) *Invoker {
	if sink == nil {
		sink = models.NopSink{}
	}
	return &Invoker{Registry: registry, Sink: sink, Logger: slog.Default(), strict: newStrictValidator()}
}

func (inv *Invoker) logger() *slog.Logger {
	if inv.Logger != nil {
		return inv.Logger
	}
	return slog.Default()
}

// Invoke runs a single pending tool call and returns its result
// message. It never returns an error: all failure modes (unknown tool,
// malformed arguments, a panicking or erroring tool body) are turned
// into an is_error=true ToolResultMessage so the tool-call loop can
// keep going.
func (inv *Invoker) Invoke(ctx context.Context, call models.ToolCall) models.Message {
	t, ok := inv.Registry.Get(call.Name)
	if !ok {
		return models.NewToolResultText(call.CallID, call.Name, "tool not found: "+call.Name, true)
	}

	decl := t.Declaration()
	if err := inv.strict.Validate(decl, call.Arguments); err != nil {
		toolErr := agenterr.NewToolError(agenterr.KindToolArgParse, call.Name, call.CallID, err)
		inv.logger().Warn("tool argument validation failed", "tool", call.Name, "call_id", call.CallID, "error", toolErr)
		raw := string(call.Arguments)
		if len(raw) > maxRawArgsInError {
			raw = raw[:maxRawArgsInError]
		}
		text := fmt.Sprintf("Failed to parse tool arguments: %s\nRaw arguments: %s", err, raw)
		return models.NewToolResultText(call.CallID, call.Name, text, true)
	}

	args, err := CoerceArguments(call.Arguments, decl.Parameters)
	if err != nil {
		toolErr := agenterr.NewToolError(agenterr.KindToolArgParse, call.Name, call.CallID, err)
		inv.logger().Warn("tool argument coercion failed", "tool", call.Name, "call_id", call.CallID, "error", toolErr)
		raw := string(call.Arguments)
		if len(raw) > maxRawArgsInError {
			raw = raw[:maxRawArgsInError]
		}
		text := fmt.Sprintf("Failed to parse tool arguments: %s\nRaw arguments: %s", err, raw)
		return models.NewToolResultText(call.CallID, call.Name, text, true)
	}

	inv.Sink.Emit(models.Event{
		Kind:     models.EventToolExecutionStart,
		Time:     time.Now(),
		ToolCall: &call,
	})

	start := time.Now()
	result, execErr := inv.safeExecute(ctx, t, args)
	elapsed := time.Since(start)

	var resultMsg models.Message
	if execErr != nil {
		toolErr := agenterr.NewToolError(agenterr.KindToolBody, call.Name, call.CallID, execErr)
		inv.logger().Warn("tool body returned an error", "tool", call.Name, "call_id", call.CallID, "duration_ms", elapsed.Milliseconds(), "error", toolErr)
		resultMsg = models.NewToolResultText(call.CallID, call.Name, execErr.Error(), true)
	} else if result == nil {
		resultMsg = models.NewToolResultText(call.CallID, call.Name, "", false)
	} else {
		resultMsg = models.NewToolResultText(call.CallID, call.Name, result.Content, result.IsError)
	}

	inv.Sink.Emit(models.Event{
		Kind:       models.EventToolExecutionEnd,
		Time:       time.Now(),
		ToolCall:   &call,
		ToolResult: resultMsg.ToolResult,
		DurationMS: elapsed.Milliseconds(),
	})

	return resultMsg
}

// safeExecute runs the tool body, converting a panic into an error so a
// single misbehaving tool never takes down the evaluation.
func (inv *Invoker) safeExecute(ctx context.Context, t Tool, args map[string]any) (result *models.ToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return t.Execute(ctx, args)
}
