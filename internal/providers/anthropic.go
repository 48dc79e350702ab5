package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/corehaven/agentcore/pkg/models"
)

// AnthropicMessages adapts the canonical state to and from Anthropic's
// Messages API, grounded on the teacher's Anthropic provider.
type AnthropicMessages struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicMessages builds an adapter bound to one model.
func NewAnthropicMessages(apiKey, model string, opts ...option.RequestOption) *AnthropicMessages {
	allOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicMessages{
		client: anthropic.NewClient(allOpts...),
		model:  anthropic.Model(model),
	}
}

func (a *AnthropicMessages) Name() string { return "anthropic:messages" }

func (a *AnthropicMessages) buildParams(req Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 4096,
	}
	if req.MaxTokens != nil {
		params.MaxTokens = int64(*req.MaxTokens)
	}
	if req.SystemText != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemText}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	for _, t := range req.Tools {
		var schema any
		_ = json.Unmarshal(t.ParametersSchema, &schema)
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{Properties: schema},
			},
		})
	}

	normalized := NormalizeMessages(req.State.Messages, "anthropic", "messages", string(a.model), anthropicToolID)
	for _, msg := range normalized {
		if converted, ok := toAnthropicMessage(msg); ok {
			params.Messages = append(params.Messages, converted)
		}
	}
	return params
}

// anthropicToolID sanitizes a tool-call id to the charset Anthropic's
// Messages API accepts, per spec §4.F.2.
func anthropicToolID(id string) string {
	return sanitizeIDCharset(id, 0)
}

// toAnthropicMessage converts one canonical message into an Anthropic
// message param, signaling false for message kinds that carry no
// direct wire representation (a compaction summary is folded upstream
// into a user-role synthetic message by the compaction engine, not
// here).
func toAnthropicMessage(msg models.Message) (anthropic.MessageParam, bool) {
	switch msg.Type {
	case models.MessageUser:
		var blocks []anthropic.ContentBlockParamUnion
		for _, b := range msg.User.Content {
			if b.Type == models.BlockText && b.Text != nil {
				blocks = append(blocks, anthropic.NewTextBlock(b.Text.Text))
			}
			if b.Type == models.BlockImage && b.Image != nil {
				if b.Image.URL != "" {
					blocks = append(blocks, anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: b.Image.URL}))
				} else {
					blocks = append(blocks, anthropic.NewImageBlock(anthropic.Base64ImageSourceParam{
						Data:      b.Image.Data,
						MediaType: anthropic.Base64ImageSourceMediaType(b.Image.MediaType),
					}))
				}
			}
		}
		return anthropic.NewUserMessage(blocks...), true

	case models.MessageAssistant:
		var blocks []anthropic.ContentBlockParamUnion
		for _, b := range msg.Assistant.Content {
			switch b.Type {
			case models.BlockText:
				blocks = append(blocks, anthropic.NewTextBlock(b.Text.Text))
			case models.BlockThinking:
				blocks = append(blocks, anthropic.NewThinkingBlock(b.Thinking.Signature, b.Thinking.Text))
			case models.BlockToolCall:
				var input any
				_ = json.Unmarshal(b.ToolCall.Arguments, &input)
				blocks = append(blocks, anthropic.NewToolUseBlock(b.ToolCall.CallID, input, b.ToolCall.Name))
			}
		}
		return anthropic.NewAssistantMessage(blocks...), true

	case models.MessageToolResult:
		content := models.MessageText(msg)
		return anthropic.NewUserMessage(anthropic.NewToolResultBlock(msg.ToolResult.CallID, content, msg.ToolResult.IsError)), true
	}
	return anthropic.MessageParam{}, false
}

// anthropicStream implements StreamHandle over the SDK's streaming
// iterator, translating raw SSE deltas into canonical events while
// accumulating the finished AssistantMessage.
type anthropicStream struct {
	stream *anthropic.MessageStreamSnapshot
	iter   *anthropic.MessageStream
	msg    models.Message
	usage  models.Usage
	done   bool
}

func (a *AnthropicMessages) Stream(ctx context.Context, req Request) (StreamHandle, error) {
	params := a.buildParams(req)
	iter := a.client.Messages.NewStreaming(ctx, params)

	result := &anthropicStream{
		iter: iter,
		msg:  models.NewAssistantMessage("anthropic", "messages", string(a.model)),
	}
	return result, nil
}

func (s *anthropicStream) Next(ctx context.Context) (models.Event, bool, error) {
	if s.done {
		return models.Event{}, false, nil
	}

	if !s.iter.Next() {
		if err := s.iter.Err(); err != nil {
			return models.Event{}, false, fmt.Errorf("anthropic stream: %w", err)
		}
		s.done = true
		return models.Event{Kind: models.EventMessageEnd, Role: models.RoleAssistant, Msg: &s.msg}, true, nil
	}

	event := s.iter.Current()
	switch variant := event.AsAny().(type) {
	case anthropic.ContentBlockDeltaEvent:
		switch delta := variant.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			s.msg.Assistant.AppendText(delta.Text)
			return models.Event{Kind: models.EventMessageUpdate, Role: models.RoleAssistant, Update: models.UpdateText, Delta: delta.Text}, true, nil
		case anthropic.ThinkingDelta:
			s.msg.Assistant.AppendThinking(delta.Thinking)
			return models.Event{Kind: models.EventMessageUpdate, Role: models.RoleAssistant, Update: models.UpdateReasoning, Delta: delta.Thinking}, true, nil
		}
	case anthropic.MessageDeltaEvent:
		s.usage.Output += int(variant.Usage.OutputTokens)
	}
	return models.Event{Kind: models.EventMessageUpdate, Role: models.RoleAssistant, Update: models.UpdateText, Delta: ""}, true, nil
}

func (s *anthropicStream) Close() error {
	if s.iter != nil {
		return s.iter.Close()
	}
	return nil
}

var _ Adapter = (*AnthropicMessages)(nil)
