package providers

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/corehaven/agentcore/pkg/models"
)

// OpenAICompletions adapts the canonical state to the older, widely
// cloned chat-completions wire shape. Unlike OpenAIResponses, it
// branches on a CompatMatrix because third-party backends that speak
// this shape (proxies, local inference servers, other vendors)
// disagree on several optional fields.
type OpenAICompletions struct {
	client *openai.Client
	model  string
	compat CompatMatrix
}

// NewOpenAICompletions builds an adapter bound to one model and compat
// profile.
func NewOpenAICompletions(client *openai.Client, model string, compat CompatMatrix) *OpenAICompletions {
	return &OpenAICompletions{client: client, model: model, compat: compat}
}

func (a *OpenAICompletions) Name() string { return "openai:completions" }

// toolIDRule returns the tool-call-id normalization rule this
// backend's compat profile requires, or nil for plain passthrough, per
// spec §4.F.2's per-provider compatibility matrix.
func (a *OpenAICompletions) toolIDRule() func(string) string {
	switch {
	case a.compat.RequiresMistralToolIds:
		return sanitizeMistralToolID
	case a.compat.SanitizeToolIDs:
		maxLen := a.compat.ToolIDMaxLen
		return func(id string) string { return sanitizeIDCharset(id, maxLen) }
	default:
		return nil
	}
}

func (a *OpenAICompletions) buildRequest(req Request) openai.ChatCompletionRequest {
	systemRole := openai.ChatMessageRoleSystem
	if a.compat.SupportsDeveloperRole {
		systemRole = openai.ChatMessageRoleDeveloper
	}

	var messages []openai.ChatCompletionMessage
	if req.SystemText != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: systemRole, Content: req.SystemText})
	}

	normalized := NormalizeMessages(req.State.Messages, "openai", "completions", a.model, a.toolIDRule())
	for i, msg := range normalized {
		converted := toOpenAIMessages(msg)
		messages = append(messages, converted...)

		if msg.Type == models.MessageToolResult && a.compat.RequiresAssistantAfterToolResult {
			nextIsAssistant := i+1 < len(normalized) && normalized[i+1].Type == models.MessageAssistant
			if !nextIsAssistant {
				messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: ""})
			}
		}
	}
	if a.compat.RequiresToolResultName {
		for i := range messages {
			if messages[i].Role == openai.ChatMessageRoleTool && messages[i].Name == "" {
				messages[i].Name = messages[i].ToolCallID
			}
		}
	}

	out := openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: messages,
		Stream:   true,
	}
	if a.compat.SupportsStore {
		out.Store = true
	}
	if a.compat.SupportsUsageInStreaming {
		out.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}
	if req.MaxTokens != nil {
		if a.compat.MaxTokensField == "max_completion_tokens" {
			out.MaxCompletionTokens = *req.MaxTokens
		} else {
			out.MaxTokens = *req.MaxTokens
		}
	}
	if req.Temperature != nil {
		out.Temperature = float32(*req.Temperature)
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.ParametersSchema,
			},
		})
	}
	return out
}

type openaiCompletionsStream struct {
	stream *openai.ChatCompletionStream
	msg    models.Message
	done   bool
}

func (a *OpenAICompletions) Stream(ctx context.Context, req Request) (StreamHandle, error) {
	stream, err := a.client.CreateChatCompletionStream(ctx, a.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("openai completions stream start: %w", err)
	}
	return &openaiCompletionsStream{stream: stream, msg: models.NewAssistantMessage("openai", "completions", a.model)}, nil
}

// StreamOnce implements SupportsStreaming as a non-streaming fallback
// for backends whose SSE output is unreliable.
func (a *OpenAICompletions) StreamOnce(ctx context.Context, req Request) (models.Message, models.Usage, error) {
	chatReq := a.buildRequest(req)
	chatReq.Stream = false
	resp, err := a.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return models.Message{}, models.Usage{}, fmt.Errorf("openai completions: %w", err)
	}
	msg := models.NewAssistantMessage("openai", "completions", a.model)
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		msg.Assistant.AppendText(choice.Message.Content)
		for _, tc := range choice.Message.ToolCalls {
			msg.Assistant.ToolCalls = append(msg.Assistant.ToolCalls, models.ToolCall{
				CallID:    tc.ID,
				Name:      tc.Function.Name,
				Arguments: []byte(tc.Function.Arguments),
			})
		}
	}
	usage := models.Usage{
		Input:  resp.Usage.PromptTokens,
		Output: resp.Usage.CompletionTokens,
		Total:  resp.Usage.TotalTokens,
	}
	return msg, usage, nil
}

func (s *openaiCompletionsStream) Next(ctx context.Context) (models.Event, bool, error) {
	if s.done {
		return models.Event{}, false, nil
	}
	chunk, err := s.stream.Recv()
	if err != nil {
		s.done = true
		if err.Error() == "EOF" {
			return models.Event{Kind: models.EventMessageEnd, Role: models.RoleAssistant, Msg: &s.msg}, true, nil
		}
		return models.Event{}, false, fmt.Errorf("openai completions stream: %w", err)
	}
	if len(chunk.Choices) == 0 {
		return models.Event{Kind: models.EventMessageUpdate, Update: models.UpdateText}, true, nil
	}
	delta := chunk.Choices[0].Delta
	if delta.Content != "" {
		s.msg.Assistant.AppendText(delta.Content)
		return models.Event{Kind: models.EventMessageUpdate, Role: models.RoleAssistant, Update: models.UpdateText, Delta: delta.Content}, true, nil
	}
	for _, tc := range delta.ToolCalls {
		s.msg.Assistant.ToolCalls = append(s.msg.Assistant.ToolCalls, models.ToolCall{
			CallID:    tc.ID,
			Name:      tc.Function.Name,
			Arguments: []byte(tc.Function.Arguments),
		})
	}
	return models.Event{Kind: models.EventMessageUpdate, Role: models.RoleAssistant, Update: models.UpdateToolArguments}, true, nil
}

func (s *openaiCompletionsStream) Close() error {
	if s.stream != nil {
		s.stream.Close()
	}
	return nil
}

var (
	_ Adapter           = (*OpenAICompletions)(nil)
	_ SupportsStreaming = (*OpenAICompletions)(nil)
)
