package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/corehaven/agentcore/pkg/models"
)

// GoogleGenerativeAI adapts the canonical state to Google's
// Generative Language API via the genai SDK, grounded on the teacher's
// Google provider.
type GoogleGenerativeAI struct {
	client *genai.Client
	model  string
}

// NewGoogleGenerativeAI builds an adapter bound to one model using a
// Gemini API key.
func NewGoogleGenerativeAI(ctx context.Context, apiKey, model string) (*GoogleGenerativeAI, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("new genai client: %w", err)
	}
	return &GoogleGenerativeAI{client: client, model: model}, nil
}

func (a *GoogleGenerativeAI) Name() string { return "google:generative-ai" }

func (a *GoogleGenerativeAI) buildContents(req Request) []*genai.Content {
	var out []*genai.Content
	normalized := NormalizeMessages(req.State.Messages, "google", "generative-ai", a.model, googleToolID(a.model))
	for _, msg := range normalized {
		if c := toGenAIContent(msg); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// googleToolID implements the "include only for claude-*/gpt-oss-*
// served models; 64-char sanitize" rule shared by the Generative-AI
// and Gemini-CLI adapters (spec §4.F.2): models outside that set never
// round-trip a tool-call id, so the returned rule is nil.
func googleToolID(model string) func(string) string {
	if !strings.HasPrefix(model, "claude-") && !strings.HasPrefix(model, "gpt-oss-") {
		return nil
	}
	return func(id string) string { return sanitizeIDCharset(id, 64) }
}

func toGenAIContent(msg models.Message) *genai.Content {
	switch msg.Type {
	case models.MessageUser:
		return &genai.Content{Role: "user", Parts: []*genai.Part{genai.NewPartFromText(models.MessageText(msg))}}
	case models.MessageAssistant:
		var parts []*genai.Part
		for _, b := range msg.Assistant.Content {
			switch b.Type {
			case models.BlockText:
				parts = append(parts, genai.NewPartFromText(b.Text.Text))
			case models.BlockToolCall:
				var args map[string]any
				_ = json.Unmarshal(b.ToolCall.Arguments, &args)
				parts = append(parts, genai.NewPartFromFunctionCall(b.ToolCall.Name, args))
			}
		}
		return &genai.Content{Role: "model", Parts: parts}
	case models.MessageToolResult:
		return &genai.Content{
			Role: "user",
			Parts: []*genai.Part{genai.NewPartFromFunctionResponse(msg.ToolResult.Name, map[string]any{
				"content":  models.MessageText(msg),
				"is_error": msg.ToolResult.IsError,
			})},
		}
	case models.MessageCompactionSummary:
		return &genai.Content{Role: "user", Parts: []*genai.Part{genai.NewPartFromText(msg.CompactionSummary.Summary)}}
	}
	return nil
}

func (a *GoogleGenerativeAI) buildConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.SystemText != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(req.SystemText)}}
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		cfg.Temperature = &t
	}
	if req.MaxTokens != nil {
		m := int32(*req.MaxTokens)
		cfg.MaxOutputTokens = m
	}
	for _, t := range req.Tools {
		var schema *genai.Schema
		_ = json.Unmarshal(t.ParametersSchema, &schema)
		cfg.Tools = append(cfg.Tools, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schema,
			}},
		})
	}
	return cfg
}

type googleGenAIStream struct {
	iter func(func(*genai.GenerateContentResponse, error) bool)
	stop func()
	msg  models.Message
	ch   chan genAIChunk
	done bool
}

type genAIChunk struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (a *GoogleGenerativeAI) Stream(ctx context.Context, req Request) (StreamHandle, error) {
	seq := a.client.Models.GenerateContentStream(ctx, a.model, a.buildContents(req), a.buildConfig(req))

	ch := make(chan genAIChunk, 8)
	go func() {
		defer close(ch)
		for resp, err := range seq {
			ch <- genAIChunk{resp: resp, err: err}
			if err != nil {
				return
			}
		}
	}()

	return &googleGenAIStream{ch: ch, msg: models.NewAssistantMessage("google", "generative-ai", a.model)}, nil
}

func (s *googleGenAIStream) Next(ctx context.Context) (models.Event, bool, error) {
	if s.done {
		return models.Event{}, false, nil
	}
	chunk, ok := <-s.ch
	if !ok {
		s.done = true
		return models.Event{Kind: models.EventMessageEnd, Role: models.RoleAssistant, Msg: &s.msg}, true, nil
	}
	if chunk.err != nil {
		s.done = true
		return models.Event{}, false, fmt.Errorf("google generative-ai stream: %w", chunk.err)
	}
	if chunk.resp == nil || len(chunk.resp.Candidates) == 0 {
		return models.Event{Kind: models.EventMessageUpdate, Update: models.UpdateText}, true, nil
	}
	for _, part := range chunk.resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			s.msg.Assistant.AppendText(part.Text)
			return models.Event{Kind: models.EventMessageUpdate, Role: models.RoleAssistant, Update: models.UpdateText, Delta: part.Text}, true, nil
		}
		if part.FunctionCall != nil {
			argBytes, _ := json.Marshal(part.FunctionCall.Args)
			s.msg.Assistant.ToolCalls = append(s.msg.Assistant.ToolCalls, models.ToolCall{
				Name:      part.FunctionCall.Name,
				Arguments: argBytes,
			})
			return models.Event{Kind: models.EventMessageUpdate, Role: models.RoleAssistant, Update: models.UpdateToolArguments}, true, nil
		}
	}
	return models.Event{Kind: models.EventMessageUpdate, Update: models.UpdateText}, true, nil
}

func (s *googleGenAIStream) Close() error { return nil }

var _ Adapter = (*GoogleGenerativeAI)(nil)
