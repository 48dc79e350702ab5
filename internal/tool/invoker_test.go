package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/corehaven/agentcore/pkg/models"
)

func echoTool() Tool {
	return Func{
		Decl: Declaration{
			Name:        "echo",
			Description: "echoes text back",
			Parameters:  []Parameter{{Name: "text", Schema: Schema{Kind: KindString}, Required: true}},
		},
		Run: func(ctx context.Context, args map[string]any) (*models.ToolResult, error) {
			return &models.ToolResult{Content: args["text"].(string)}, nil
		},
	}
}

// TestS2SingleToolCycle grounds spec §8 scenario S2: a one-element
// ToolResultMessage slice is produced for a single tool call.
func TestS2SingleToolCycle(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool())
	inv := NewInvoker(reg, nil)

	msg := inv.Invoke(context.Background(), models.ToolCall{
		CallID:    "call_1",
		Name:      "echo",
		Arguments: json.RawMessage(`{"text":"hi"}`),
	})

	if msg.Type != models.MessageToolResult {
		t.Fatalf("expected tool_result message, got %v", msg.Type)
	}
	if msg.ToolResult.CallID != "call_1" || msg.ToolResult.Name != "echo" || msg.ToolResult.IsError {
		t.Fatalf("unexpected result: %+v", msg.ToolResult)
	}
	if models.MessageText(msg) != "hi" {
		t.Fatalf("text = %q", models.MessageText(msg))
	}
}

func TestInvokeUnknownToolProducesErrorResult(t *testing.T) {
	inv := NewInvoker(NewRegistry(), nil)
	msg := inv.Invoke(context.Background(), models.ToolCall{CallID: "c1", Name: "missing", Arguments: json.RawMessage(`{}`)})
	if !msg.ToolResult.IsError {
		t.Fatalf("expected error result for unknown tool")
	}
}

func TestInvokeMalformedArgumentsProducesErrorResultWithoutInvoking(t *testing.T) {
	reg := NewRegistry()
	invoked := false
	reg.Register(Func{
		Decl: Declaration{Name: "strict", Parameters: []Parameter{{Name: "n", Schema: Schema{Kind: KindInteger}, Required: true}}},
		Run: func(ctx context.Context, args map[string]any) (*models.ToolResult, error) {
			invoked = true
			return &models.ToolResult{}, nil
		},
	})
	inv := NewInvoker(reg, nil)

	msg := inv.Invoke(context.Background(), models.ToolCall{CallID: "c1", Name: "strict", Arguments: json.RawMessage(`{}`)})
	if !msg.ToolResult.IsError {
		t.Fatalf("expected parse-failure error result")
	}
	if invoked {
		t.Fatalf("tool body must not run when argument parsing fails")
	}
	text := models.MessageText(msg)
	if len(text) == 0 || text[:len("Failed to parse tool arguments")] != "Failed to parse tool arguments" {
		t.Fatalf("unexpected error text: %q", text)
	}
}

func TestInvokeToolErrorBecomesErrorResult(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Func{
		Decl: Declaration{Name: "fails"},
		Run: func(ctx context.Context, args map[string]any) (*models.ToolResult, error) {
			return nil, errors.New("boom")
		},
	})
	inv := NewInvoker(reg, nil)
	msg := inv.Invoke(context.Background(), models.ToolCall{CallID: "c1", Name: "fails", Arguments: json.RawMessage(`{}`)})
	if !msg.ToolResult.IsError || models.MessageText(msg) != "boom" {
		t.Fatalf("unexpected result: %+v", msg.ToolResult)
	}
}

func TestInvokeToolPanicIsRecovered(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Func{
		Decl: Declaration{Name: "panics"},
		Run: func(ctx context.Context, args map[string]any) (*models.ToolResult, error) {
			panic("kaboom")
		},
	})
	inv := NewInvoker(reg, nil)
	msg := inv.Invoke(context.Background(), models.ToolCall{CallID: "c1", Name: "panics", Arguments: json.RawMessage(`{}`)})
	if !msg.ToolResult.IsError {
		t.Fatalf("expected panic to be recovered into an error result")
	}
}

func TestInvokeLogsToolBodyFailure(t *testing.T) {
	var buf bytes.Buffer
	reg := NewRegistry()
	reg.Register(Func{
		Decl: Declaration{Name: "fails"},
		Run: func(ctx context.Context, args map[string]any) (*models.ToolResult, error) {
			return nil, errors.New("boom")
		},
	})
	inv := NewInvoker(reg, nil)
	inv.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	inv.Invoke(context.Background(), models.ToolCall{CallID: "c1", Name: "fails", Arguments: json.RawMessage(`{}`)})

	if !bytes.Contains(buf.Bytes(), []byte("tool body returned an error")) {
		t.Fatalf("expected a logged warning, got: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("call_id=c1")) {
		t.Fatalf("expected call_id field in log output, got: %s", buf.String())
	}
}

func TestInvokeEmitsStartAndEndEvents(t *testing.T) {
	var kinds []models.EventKind
	sink := models.SinkFunc(func(e models.Event) { kinds = append(kinds, e.Kind) })

	reg := NewRegistry()
	reg.Register(echoTool())
	inv := NewInvoker(reg, sink)

	inv.Invoke(context.Background(), models.ToolCall{CallID: "c1", Name: "echo", Arguments: json.RawMessage(`{"text":"hi"}`)})

	if len(kinds) != 2 || kinds[0] != models.EventToolExecutionStart || kinds[1] != models.EventToolExecutionEnd {
		t.Fatalf("unexpected event sequence: %v", kinds)
	}
}
