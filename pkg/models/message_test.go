package models

import (
	"encoding/json"
	"testing"
)

func TestAssistantMessageAppendTextFusesTrailingBlock(t *testing.T) {
	msg := NewAssistantMessage("anthropic", "messages", "claude-x")
	msg.Assistant.AppendText("hel")
	msg.Assistant.AppendText("lo")

	if got := msg.Assistant.Text(); got != "hello" {
		t.Fatalf("Text() = %q, want %q", got, "hello")
	}
	if len(msg.Assistant.Content) != 1 {
		t.Fatalf("expected deltas to fuse into one block, got %d blocks", len(msg.Assistant.Content))
	}
}

func TestAssistantMessageAppendTextNewBlockAfterToolCall(t *testing.T) {
	msg := NewAssistantMessage("openai", "responses", "gpt-5")
	msg.Assistant.AppendText("thinking about it")
	msg.Assistant.Content = append(msg.Assistant.Content, ContentBlock{
		Type:     BlockToolCall,
		ToolCall: &ToolCallBlock{CallID: "call_1", Name: "echo"},
	})
	msg.Assistant.AppendText("done")

	if len(msg.Assistant.Content) != 3 {
		t.Fatalf("expected 3 blocks (text, toolCall, text), got %d", len(msg.Assistant.Content))
	}
	if got := msg.Assistant.Text(); got != "thinking about itdone" {
		t.Fatalf("Text() = %q", got)
	}
}

func TestSetLastTextOverwritesFinalCanonicalForm(t *testing.T) {
	msg := NewAssistantMessage("google", "generative-ai", "gemini-2.5")
	msg.Assistant.AppendText("partial")
	msg.Assistant.AppendText(" stream")
	msg.Assistant.SetLastText("final canonical text")

	if got := msg.Assistant.Text(); got != "final canonical text" {
		t.Fatalf("Text() = %q", got)
	}
}

// TestInvariant1TextMatchesStreamedDeltas is Testable Property 1 from
// spec §8: message_text(m) must equal the concatenation of every
// MessageUpdate(:text) delta sent for that message.
func TestInvariant1TextMatchesStreamedDeltas(t *testing.T) {
	deltas := []string{"The ", "quick ", "brown ", "fox"}
	msg := NewAssistantMessage("anthropic", "messages", "claude-x")
	var streamed string
	for _, d := range deltas {
		msg.Assistant.AppendText(d)
		streamed += d
	}
	if got := MessageText(msg); got != streamed {
		t.Fatalf("MessageText() = %q, want %q", got, streamed)
	}
}

func TestMessageJSONRoundTrip(t *testing.T) {
	cases := []Message{
		NewUserText("hi there"),
		func() Message {
			m := NewAssistantMessage("anthropic", "messages", "claude-sonnet-4")
			m.Assistant.AppendThinking("let me think")
			m.Assistant.AppendText("the answer is 4")
			m.Assistant.Content = append(m.Assistant.Content, ContentBlock{
				Type: BlockToolCall,
				ToolCall: &ToolCallBlock{
					CallID:    "call_abc",
					Name:      "calculator",
					Arguments: json.RawMessage(`{"expr":"2+2"}`),
				},
			})
			m.Assistant.ToolCalls = []ToolCall{{CallID: "call_abc", Name: "calculator", Arguments: json.RawMessage(`{"expr":"2+2"}`)}}
			return m
		}(),
		NewToolResultText("call_abc", "calculator", "4", false),
		NewCompactionSummaryMessage("Goal: ship the feature.", 12000, 1700000000),
	}

	for _, original := range cases {
		data, err := json.Marshal(original)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", original.Type, err)
		}
		var decoded Message
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal(%v): %v", original.Type, err)
		}
		if decoded.Type != original.Type {
			t.Fatalf("round-trip type mismatch: got %v want %v", decoded.Type, original.Type)
		}
		if MessageText(decoded) != MessageText(original) {
			t.Fatalf("round-trip text mismatch: got %q want %q", MessageText(decoded), MessageText(original))
		}
	}
}

func TestMessageTypeTagDrivesDeserialization(t *testing.T) {
	raw := `{"type":"tool_result","tool_result":{"call_id":"c1","name":"echo","content":[{"type":"text","text":{"text":"hi"}}],"is_error":false}}`
	var m Message
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatal(err)
	}
	if m.Type != MessageToolResult || m.ToolResult == nil {
		t.Fatalf("expected tool_result message, got %+v", m)
	}
	if m.ToolResult.CallID != "c1" {
		t.Fatalf("CallID = %q", m.ToolResult.CallID)
	}
}
