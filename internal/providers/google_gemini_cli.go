package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/corehaven/agentcore/internal/net/ssrf"
	"github.com/corehaven/agentcore/pkg/models"
)

// GoogleGeminiCLI adapts the canonical state to the Gemini-CLI/Cloud
// Code Assist streaming endpoint: an OAuth-bearer-authenticated
// variant of the Generative Language wire shape used by Google's own
// CLI tooling rather than a Gemini API key, grounded on the teacher's
// OAuth device-flow provider variant.
type GoogleGeminiCLI struct {
	httpClient *http.Client
	endpoint   string
	model      string
	projectID  string
}

// NewGoogleGeminiCLI builds an adapter that authenticates with an
// oauth2.TokenSource rather than a Gemini API key.
func NewGoogleGeminiCLI(ctx context.Context, ts oauth2.TokenSource, endpoint, projectID, model string) *GoogleGeminiCLI {
	return &GoogleGeminiCLI{
		httpClient: oauth2.NewClient(ctx, ts),
		endpoint:   endpoint,
		projectID:  projectID,
		model:      model,
	}
}

func (a *GoogleGeminiCLI) Name() string { return "google:gemini-cli" }

type geminiCLIRequest struct {
	Project  string         `json:"project"`
	Model    string         `json:"model"`
	Contents []*cliContent  `json:"contents"`
	System   *cliContent    `json:"systemInstruction,omitempty"`
	Tools    []cliToolDecl  `json:"tools,omitempty"`
}

type cliContent struct {
	Role  string    `json:"role"`
	Parts []cliPart `json:"parts"`
}

type cliPart struct {
	Text         string          `json:"text,omitempty"`
	FunctionCall *cliFuncCall    `json:"functionCall,omitempty"`
	FunctionResp *cliFuncResp    `json:"functionResponse,omitempty"`
}

type cliFuncCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type cliFuncResp struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type cliToolDecl struct {
	FunctionDeclarations []cliFuncDecl `json:"functionDeclarations"`
}

type cliFuncDecl struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

func (a *GoogleGeminiCLI) buildRequest(req Request) geminiCLIRequest {
	out := geminiCLIRequest{Project: a.projectID, Model: a.model}
	if req.SystemText != "" {
		out.System = &cliContent{Parts: []cliPart{{Text: req.SystemText}}}
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, cliToolDecl{FunctionDeclarations: []cliFuncDecl{{
			Name: t.Name, Description: t.Description, Parameters: t.ParametersSchema,
		}}})
	}
	normalized := NormalizeMessages(req.State.Messages, "google", "gemini-cli", a.model, googleToolID(a.model))
	for _, msg := range normalized {
		if c := toCLIContent(msg); c != nil {
			out.Contents = append(out.Contents, c)
		}
	}
	return out
}

func toCLIContent(msg models.Message) *cliContent {
	switch msg.Type {
	case models.MessageUser:
		return &cliContent{Role: "user", Parts: []cliPart{{Text: models.MessageText(msg)}}}
	case models.MessageAssistant:
		var parts []cliPart
		for _, b := range msg.Assistant.Content {
			switch b.Type {
			case models.BlockText:
				parts = append(parts, cliPart{Text: b.Text.Text})
			case models.BlockToolCall:
				var args map[string]any
				_ = json.Unmarshal(b.ToolCall.Arguments, &args)
				parts = append(parts, cliPart{FunctionCall: &cliFuncCall{Name: b.ToolCall.Name, Args: args}})
			}
		}
		return &cliContent{Role: "model", Parts: parts}
	case models.MessageToolResult:
		return &cliContent{Role: "user", Parts: []cliPart{{FunctionResp: &cliFuncResp{
			Name: msg.ToolResult.Name,
			Response: map[string]any{
				"content":  models.MessageText(msg),
				"is_error": msg.ToolResult.IsError,
			},
		}}}}
	case models.MessageCompactionSummary:
		return &cliContent{Role: "user", Parts: []cliPart{{Text: msg.CompactionSummary.Summary}}}
	}
	return nil
}

type geminiCLIChunk struct {
	Candidates []struct {
		Content cliContent `json:"content"`
	} `json:"candidates"`
}

type geminiCLIStream struct {
	scanner *sseScanner
	body    func() error
	msg     models.Message
	done    bool
}

// endpoint is operator-configured (internal/config's provider.base_url),
// so it is validated against SSRF rules on every call rather than only
// at config-load time: a compromised or misconfigured config reload
// should never be able to redirect this adapter at an internal host.
func (a *GoogleGeminiCLI) Stream(ctx context.Context, req Request) (StreamHandle, error) {
	parsed, err := url.Parse(a.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse gemini-cli endpoint: %w", err)
	}
	if err := ssrf.ValidatePublicHostname(parsed.Hostname()); err != nil {
		return nil, fmt.Errorf("gemini-cli endpoint rejected: %w", err)
	}

	body, err := json.Marshal(a.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal gemini-cli request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+":streamGenerateContent?alt=sse", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gemini-cli request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini-cli request: %w", err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("gemini-cli request failed: status %d", resp.StatusCode)
	}

	return &geminiCLIStream{
		scanner: newSSEScanner(resp.Body),
		body:    resp.Body.Close,
		msg:     models.NewAssistantMessage("google", "gemini-cli", a.model),
	}, nil
}

func (s *geminiCLIStream) Next(ctx context.Context) (models.Event, bool, error) {
	if s.done {
		return models.Event{}, false, nil
	}
	ev, err := s.scanner.Next()
	if err != nil {
		s.done = true
		if err.Error() == "EOF" {
			return models.Event{Kind: models.EventMessageEnd, Role: models.RoleAssistant, Msg: &s.msg}, true, nil
		}
		return models.Event{}, false, fmt.Errorf("gemini-cli stream: %w", err)
	}

	var chunk geminiCLIChunk
	if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
		return models.Event{Kind: models.EventMessageUpdate, Update: models.UpdateText}, true, nil
	}
	if len(chunk.Candidates) == 0 {
		return models.Event{Kind: models.EventMessageUpdate, Update: models.UpdateText}, true, nil
	}
	for _, part := range chunk.Candidates[0].Content.Parts {
		if part.Text != "" {
			s.msg.Assistant.AppendText(part.Text)
			return models.Event{Kind: models.EventMessageUpdate, Role: models.RoleAssistant, Update: models.UpdateText, Delta: part.Text}, true, nil
		}
		if part.FunctionCall != nil {
			argBytes, _ := json.Marshal(part.FunctionCall.Args)
			s.msg.Assistant.ToolCalls = append(s.msg.Assistant.ToolCalls, models.ToolCall{Name: part.FunctionCall.Name, Arguments: argBytes})
			return models.Event{Kind: models.EventMessageUpdate, Role: models.RoleAssistant, Update: models.UpdateToolArguments}, true, nil
		}
	}
	return models.Event{Kind: models.EventMessageUpdate, Update: models.UpdateText}, true, nil
}

func (s *geminiCLIStream) Close() error {
	if s.body != nil {
		return s.body()
	}
	return nil
}

var _ Adapter = (*GoogleGeminiCLI)(nil)
