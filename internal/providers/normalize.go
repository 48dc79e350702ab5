package providers

import "github.com/corehaven/agentcore/pkg/models"

// NormalizeMessages applies the message-normalization pass every
// adapter's request-build half runs before translating history into
// its own wire shape (spec §4.F.1), mirroring how every adapter's
// stream-consume half shares the SSE line-reading in sse.go:
//
//  1. Drop any content block's signature carried over from a previous
//     call that targeted a different (provider, api, model) triple -
//     signatures only survive a round trip to the exact model that
//     produced them.
//  2. Run sanitizeID (nil for adapters with no tool-id quirks) over
//     every tool-call id, both on the content block and the flat
//     ToolCalls/ToolResult shapes, so ids line up with whatever each
//     wire format accepts.
//  3. Insert a synthetic, is_error=true "No result provided"
//     ToolResultMessage immediately after any assistant message whose
//     tool-call block never got a matching result - the tool-call
//     pairing invariant enforced at the adapter boundary rather than
//     trusted of every caller.
//
// The returned slice is new; messages is never mutated in place.
func NormalizeMessages(messages []models.Message, provider, api, model string, sanitizeID func(string) string) []models.Message {
	normalized := make([]models.Message, len(messages))
	for i, msg := range messages {
		normalized[i] = normalizeOneMessage(msg, provider, api, model, sanitizeID)
	}

	resultSeen := make(map[string]bool, len(normalized))
	for _, msg := range normalized {
		if msg.Type == models.MessageToolResult && msg.ToolResult != nil {
			resultSeen[msg.ToolResult.CallID] = true
		}
	}

	out := make([]models.Message, 0, len(normalized))
	for _, msg := range normalized {
		out = append(out, msg)
		if msg.Type != models.MessageAssistant || msg.Assistant == nil {
			continue
		}
		for _, b := range msg.Assistant.Content {
			if b.Type != models.BlockToolCall || b.ToolCall == nil {
				continue
			}
			if !resultSeen[b.ToolCall.CallID] {
				out = append(out, models.NewToolResultText(b.ToolCall.CallID, b.ToolCall.Name, "No result provided", true))
				resultSeen[b.ToolCall.CallID] = true
			}
		}
	}
	return out
}

func normalizeOneMessage(msg models.Message, provider, api, model string, sanitizeID func(string) string) models.Message {
	switch msg.Type {
	case models.MessageAssistant:
		if msg.Assistant == nil {
			return msg
		}
		a := *msg.Assistant
		keepSignature := a.Provider == provider && a.API == api && a.Model == model

		content := make([]models.ContentBlock, len(a.Content))
		copy(content, a.Content)
		for i, b := range content {
			switch b.Type {
			case models.BlockText:
				if b.Text != nil && b.Text.Signature != "" && !keepSignature {
					t := *b.Text
					t.Signature = ""
					content[i].Text = &t
				}
			case models.BlockThinking:
				if b.Thinking != nil && !keepSignature {
					th := *b.Thinking
					th.Signature = ""
					content[i].Thinking = &th
				}
			case models.BlockToolCall:
				if b.ToolCall == nil {
					continue
				}
				tc := *b.ToolCall
				if sanitizeID != nil {
					tc.CallID = sanitizeID(tc.CallID)
				}
				if !keepSignature {
					tc.Signature = ""
				}
				content[i].ToolCall = &tc
			}
		}
		a.Content = content

		if sanitizeID != nil && len(a.ToolCalls) > 0 {
			toolCalls := make([]models.ToolCall, len(a.ToolCalls))
			for i, tc := range a.ToolCalls {
				tc.CallID = sanitizeID(tc.CallID)
				toolCalls[i] = tc
			}
			a.ToolCalls = toolCalls
		}
		msg.Assistant = &a
		return msg

	case models.MessageToolResult:
		if sanitizeID == nil || msg.ToolResult == nil {
			return msg
		}
		r := *msg.ToolResult
		r.CallID = sanitizeID(r.CallID)
		msg.ToolResult = &r
		return msg

	default:
		return msg
	}
}

// sanitizeIDCharset replaces every rune outside [A-Za-z0-9_-] with "_"
// and, if maxLen > 0, truncates to maxLen characters - the shared
// shape behind Anthropic's, GitHub-Copilot-Claude's, and
// Google-Generative-AI's tool-id rules.
func sanitizeIDCharset(id string, maxLen int) string {
	b := []byte(id)
	for i, c := range b {
		ok := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-'
		if !ok {
			b[i] = '_'
		}
	}
	if maxLen > 0 && len(b) > maxLen {
		b = b[:maxLen]
	}
	return string(b)
}

// truncateID shortens id to maxLen characters without altering its
// charset, OpenAI-Responses' only tool-id rule.
func truncateID(id string, maxLen int) string {
	if maxLen > 0 && len(id) > maxLen {
		return id[:maxLen]
	}
	return id
}

// sanitizeMistralToolID strips non-alphanumeric characters and pads or
// truncates to exactly nine characters, the form Mistral's (and
// MiniMax's compatible) chat-completions endpoint requires.
func sanitizeMistralToolID(id string) string {
	out := make([]byte, 0, len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			out = append(out, c)
		}
	}
	for len(out) < 9 {
		out = append(out, '0')
	}
	return string(out[:9])
}
