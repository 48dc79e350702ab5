// Package models provides the canonical data model for the agent core:
// messages, content blocks, tool calls, usage, agent state and session
// entries. Every other package builds on these types.
package models

import "encoding/json"

// MessageType discriminates the Message sum type on the wire.
type MessageType string

const (
	MessageUser              MessageType = "user"
	MessageAssistant         MessageType = "assistant"
	MessageToolResult        MessageType = "tool_result"
	MessageCompactionSummary MessageType = "compaction_summary"
)

// Message is the sum type for one entry in a conversation. Exactly one
// of the typed fields is populated, matching Type.
type Message struct {
	Type MessageType `json:"type"`

	User              *UserMessage              `json:"user,omitempty"`
	Assistant         *AssistantMessage         `json:"assistant,omitempty"`
	ToolResult        *ToolResultMessage        `json:"tool_result,omitempty"`
	CompactionSummary *CompactionSummaryMessage `json:"compaction_summary,omitempty"`
}

// NewUserMessage builds a committed user message from content blocks.
func NewUserMessage(blocks ...ContentBlock) Message {
	return Message{Type: MessageUser, User: &UserMessage{Content: blocks}}
}

// NewUserText is a convenience constructor for a single text user message.
func NewUserText(text string) Message {
	return NewUserMessage(ContentBlock{Type: BlockText, Text: &TextBlock{Text: text}})
}

// NewAssistantMessage builds an empty assistant message for the given
// provider triple; callers append content via AppendText/AppendThinking
// or by mutating Content/ToolCalls directly as deltas arrive.
func NewAssistantMessage(provider, api, model string) Message {
	return Message{
		Type: MessageAssistant,
		Assistant: &AssistantMessage{
			Provider: provider,
			API:      api,
			Model:    model,
		},
	}
}

// NewToolResultMessage builds a tool result message.
func NewToolResultMessage(callID, name string, isError bool, blocks ...ContentBlock) Message {
	return Message{
		Type: MessageToolResult,
		ToolResult: &ToolResultMessage{
			CallID:  callID,
			Name:    name,
			Content: blocks,
			IsError: isError,
		},
	}
}

// NewToolResultText is a convenience constructor for a plain-text tool result.
func NewToolResultText(callID, name, text string, isError bool) Message {
	return NewToolResultMessage(callID, name, isError, ContentBlock{Type: BlockText, Text: &TextBlock{Text: text}})
}

// NewCompactionSummaryMessage builds a compaction summary message.
func NewCompactionSummaryMessage(summary string, tokensBefore int, compactedAt int64) Message {
	return Message{
		Type: MessageCompactionSummary,
		CompactionSummary: &CompactionSummaryMessage{
			Summary:      summary,
			TokensBefore: tokensBefore,
			CompactedAt:  compactedAt,
		},
	}
}

// UserMessage carries a list of user content blocks (text, image).
type UserMessage struct {
	Content []ContentBlock `json:"content"`
}

// AssistantMessage carries provider/model identity, interleaved content
// blocks (text, thinking, tool-call), and a redundant flat list of the
// tool calls completed during this turn (the "uncommitted edge" the
// tool-call loop drains).
type AssistantMessage struct {
	Provider   string         `json:"provider"`
	API        string         `json:"api"`
	Model      string         `json:"model"`
	ResponseID string         `json:"response_id,omitempty"`
	Content    []ContentBlock `json:"content"`
	ToolCalls  []ToolCall     `json:"tool_calls,omitempty"`
}

// ToolResultMessage carries the result of one tool invocation.
type ToolResultMessage struct {
	CallID  string         `json:"call_id"`
	Name    string         `json:"name"`
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"is_error,omitempty"`
}

// CompactionSummaryMessage replaces a discarded message prefix with a
// structured summary. If present in a state, it is always at index 0.
type CompactionSummaryMessage struct {
	Summary      string `json:"summary"`
	TokensBefore int    `json:"tokens_before"`
	CompactedAt  int64  `json:"compacted_at"`
}

// BlockType discriminates the ContentBlock sum type on the wire.
type BlockType string

const (
	BlockText     BlockType = "text"
	BlockThinking BlockType = "thinking"
	BlockImage    BlockType = "image"
	BlockToolCall BlockType = "toolCall"
)

// ContentBlock is the sum type for one block within a message's content
// list. Opaque provider signatures travel alongside text/thinking/
// tool-call blocks and are preserved only when the next call targets
// the exact same (provider, api, model) triple.
type ContentBlock struct {
	Type BlockType `json:"type"`

	Text     *TextBlock     `json:"text,omitempty"`
	Thinking *ThinkingBlock `json:"thinking,omitempty"`
	Image    *ImageBlock    `json:"image,omitempty"`
	ToolCall *ToolCallBlock `json:"toolCall,omitempty"`
}

// TextBlock is plain text content.
type TextBlock struct {
	Text      string `json:"text"`
	Signature string `json:"signature,omitempty"`
}

// ThinkingBlock is provider reasoning/thinking content.
type ThinkingBlock struct {
	Text      string `json:"text"`
	Signature string `json:"signature,omitempty"`
}

// ImageBlock is an image attachment, either inline base64 data or a URL.
type ImageBlock struct {
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"` // base64
	URL       string `json:"url,omitempty"`
}

// ToolCallBlock is the in-progress or completed representation of a
// tool call as it appears inside an assistant message's content list.
type ToolCallBlock struct {
	CallID    string          `json:"call_id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	Signature string          `json:"signature,omitempty"`
}

// ToolCall is the flat (call_id, name, arguments) shape used both for
// completed tool calls (AssistantMessage.ToolCalls) and for pending
// tool calls awaiting dispatch (AgentState.PendingToolCalls).
type ToolCall struct {
	CallID    string          `json:"call_id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult is the raw content produced by one tool invocation, prior
// to being wrapped in a ToolResultMessage's content blocks.
type ToolResult struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Usage accumulates token accounting across a state's lifetime.
type Usage struct {
	Input      int `json:"input"`
	Output     int `json:"output"`
	CacheRead  int `json:"cache_read"`
	CacheWrite int `json:"cache_write"`
	Total      int `json:"total"`
}

// Add accumulates u2 into u, returning the updated value.
func (u Usage) Add(u2 Usage) Usage {
	u.Input += u2.Input
	u.Output += u2.Output
	u.CacheRead += u2.CacheRead
	u.CacheWrite += u2.CacheWrite
	u.Total += u2.Total
	return u
}

// StopReason is the canonical reason a turn's assistant message ended,
// mapped from each provider's own vocabulary.
type StopReason string

const (
	StopReasonStop          StopReason = "stop"
	StopReasonToolCalls     StopReason = "tool_calls"
	StopReasonLength        StopReason = "length"
	StopReasonContentFilter StopReason = "content_filter"
	StopReasonSafety        StopReason = "safety"
	StopReasonError         StopReason = "error"
	StopReasonOther         StopReason = "other"
)

// AppendText fuses a text delta into the trailing content block of an
// assistant message if it is already a text block, or appends a new
// text block otherwise.
func (m *AssistantMessage) AppendText(delta string) {
	if n := len(m.Content); n > 0 && m.Content[n-1].Type == BlockText {
		m.Content[n-1].Text.Text += delta
		return
	}
	m.Content = append(m.Content, ContentBlock{Type: BlockText, Text: &TextBlock{Text: delta}})
}

// AppendThinking fuses a thinking delta into the trailing thinking
// block, or appends a new one otherwise.
func (m *AssistantMessage) AppendThinking(delta string) {
	if n := len(m.Content); n > 0 && m.Content[n-1].Type == BlockThinking {
		m.Content[n-1].Thinking.Text += delta
		return
	}
	m.Content = append(m.Content, ContentBlock{Type: BlockThinking, Thinking: &ThinkingBlock{Text: delta}})
}

// SetLastText overwrites the trailing text block's text, creating one
// if none exists. Used when a provider emits the final canonical text
// after having streamed deltas.
func (m *AssistantMessage) SetLastText(text string) {
	if n := len(m.Content); n > 0 && m.Content[n-1].Type == BlockText {
		m.Content[n-1].Text.Text = text
		return
	}
	m.Content = append(m.Content, ContentBlock{Type: BlockText, Text: &TextBlock{Text: text}})
}

// SetLastThinking overwrites the trailing thinking block's text,
// creating one if none exists.
func (m *AssistantMessage) SetLastThinking(text string) {
	if n := len(m.Content); n > 0 && m.Content[n-1].Type == BlockThinking {
		m.Content[n-1].Thinking.Text = text
		return
	}
	m.Content = append(m.Content, ContentBlock{Type: BlockThinking, Thinking: &ThinkingBlock{Text: text}})
}

// Text concatenates all text blocks in order.
func (m *AssistantMessage) Text() string {
	var out string
	for _, b := range m.Content {
		if b.Type == BlockText && b.Text != nil {
			out += b.Text.Text
		}
	}
	return out
}

// Thinking concatenates all thinking blocks in order.
func (m *AssistantMessage) Thinking() string {
	var out string
	for _, b := range m.Content {
		if b.Type == BlockThinking && b.Thinking != nil {
			out += b.Thinking.Text
		}
	}
	return out
}

// MessageText returns the concatenated text content of a message,
// regardless of its kind (empty for kinds with no text blocks).
func MessageText(m Message) string {
	switch m.Type {
	case MessageAssistant:
		if m.Assistant != nil {
			return m.Assistant.Text()
		}
	case MessageUser:
		if m.User != nil {
			var out string
			for _, b := range m.User.Content {
				if b.Type == BlockText && b.Text != nil {
					out += b.Text.Text
				}
			}
			return out
		}
	case MessageToolResult:
		if m.ToolResult != nil {
			var out string
			for _, b := range m.ToolResult.Content {
				if b.Type == BlockText && b.Text != nil {
					out += b.Text.Text
				}
			}
			return out
		}
	case MessageCompactionSummary:
		if m.CompactionSummary != nil {
			return m.CompactionSummary.Summary
		}
	}
	return ""
}

// MessageThinking returns the concatenated thinking content of a
// message (empty unless it is an assistant message).
func MessageThinking(m Message) string {
	if m.Type == MessageAssistant && m.Assistant != nil {
		return m.Assistant.Thinking()
	}
	return ""
}
