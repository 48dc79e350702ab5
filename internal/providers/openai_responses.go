package providers

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/corehaven/agentcore/pkg/models"
)

// OpenAIResponses adapts the canonical state to OpenAI's Responses API,
// grounded on the teacher's OpenAI provider generalized from the older
// chat-completions shape to the item-based responses shape: content
// arrives as typed output items rather than role/content turns.
type OpenAIResponses struct {
	client *openai.Client
	model  string
}

// NewOpenAIResponses builds an adapter bound to one model.
func NewOpenAIResponses(apiKey, model string) *OpenAIResponses {
	return &OpenAIResponses{client: openai.NewClient(apiKey), model: model}
}

func (a *OpenAIResponses) Name() string { return "openai:responses" }

func (a *OpenAIResponses) buildInput(req Request) []openai.ChatCompletionMessage {
	var out []openai.ChatCompletionMessage
	if req.SystemText != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleDeveloper, Content: req.SystemText})
	}
	normalized := NormalizeMessages(req.State.Messages, "openai", "responses", a.model, openaiResponsesToolID)
	for _, msg := range normalized {
		out = append(out, toOpenAIMessages(msg)...)
	}
	return out
}

// openaiResponsesToolID truncates a tool-call id to the Responses
// API's 40-character limit, per spec §4.F.2.
func openaiResponsesToolID(id string) string {
	return truncateID(id, 40)
}

func toOpenAIMessages(msg models.Message) []openai.ChatCompletionMessage {
	switch msg.Type {
	case models.MessageUser:
		return []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: models.MessageText(msg)}}
	case models.MessageAssistant:
		m := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: msg.Assistant.Text()}
		for _, b := range msg.Assistant.Content {
			if b.Type == models.BlockToolCall {
				m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
					ID:   b.ToolCall.CallID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      b.ToolCall.Name,
						Arguments: string(b.ToolCall.Arguments),
					},
				})
			}
		}
		return []openai.ChatCompletionMessage{m}
	case models.MessageToolResult:
		return []openai.ChatCompletionMessage{{
			Role:       openai.ChatMessageRoleTool,
			Content:    models.MessageText(msg),
			ToolCallID: msg.ToolResult.CallID,
		}}
	case models.MessageCompactionSummary:
		return []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: msg.CompactionSummary.Summary}}
	}
	return nil
}

type openaiResponsesStream struct {
	stream *openai.ChatCompletionStream
	msg    models.Message
	done   bool
}

func (a *OpenAIResponses) Stream(ctx context.Context, req Request) (StreamHandle, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: a.buildInput(req),
		Stream:   true,
	}
	for _, t := range req.Tools {
		chatReq.Tools = append(chatReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.ParametersSchema,
			},
		})
	}

	stream, err := a.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("openai responses stream start: %w", err)
	}
	return &openaiResponsesStream{stream: stream, msg: models.NewAssistantMessage("openai", "responses", a.model)}, nil
}

func (s *openaiResponsesStream) Next(ctx context.Context) (models.Event, bool, error) {
	if s.done {
		return models.Event{}, false, nil
	}
	chunk, err := s.stream.Recv()
	if err != nil {
		s.done = true
		if err.Error() == "EOF" {
			return models.Event{Kind: models.EventMessageEnd, Role: models.RoleAssistant, Msg: &s.msg}, true, nil
		}
		return models.Event{}, false, fmt.Errorf("openai responses stream: %w", err)
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

func (s *openaiResponsesStream) Close() error {
	if s.stream != nil {
		s.stream.Close()
	}
	return nil
}

var _ Adapter = (*OpenAIResponses)(nil)
