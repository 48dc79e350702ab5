package main

import (
	"context"
	"testing"

	"github.com/corehaven/agentcore/internal/config"
	"github.com/corehaven/agentcore/internal/dispatch"
	"github.com/corehaven/agentcore/pkg/models"
)

func TestRegisterProvidersWiresEveryKnownAPI(t *testing.T) {
	d := dispatch.New()
	configured := map[string]config.ProviderConfig{
		"anthropic": {API: "messages", DefaultModel: "claude-test"},
		"openai":    {API: "responses", DefaultModel: "gpt-test"},
		"groq":      {API: "completions", DefaultModel: "llama-test", BaseURL: "https://example.test/v1"},
	}
	if err := registerProviders(context.Background(), d, configured); err != nil {
		t.Fatalf("registerProviders: %v", err)
	}
	if !d.Registered("anthropic", "messages") {
		t.Fatal("expected anthropic:messages registered")
	}
	if !d.Registered("openai", "responses") {
		t.Fatal("expected openai:responses registered")
	}
	if !d.Registered("groq", "completions") {
		t.Fatal("expected groq:completions registered")
	}
}

func TestRegisterProvidersRejectsUnknownAPI(t *testing.T) {
	d := dispatch.New()
	configured := map[string]config.ProviderConfig{"mystery": {API: "carrier-pigeon"}}
	if err := registerProviders(context.Background(), d, configured); err == nil {
		t.Fatal("expected an error for an unrecognized provider api")
	}
}

func TestBuildGuardrailChainWiresMaxLength(t *testing.T) {
	chain := buildGuardrailChain(config.GuardrailsConfig{Enabled: []string{"max-length"}}, nil)
	if len(chain.Guardrails) != 1 {
		t.Fatalf("expected 1 guardrail, got %d", len(chain.Guardrails))
	}

	longText := make([]byte, 40000)
	for i := range longText {
		longText[i] = 'a'
	}
	verdict, err := chain.Evaluate(context.Background(), models.NewUserText(string(longText)))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if verdict.Passed {
		t.Fatal("expected an overlong message to be blocked")
	}
}

func TestCompatMatrixFromConfigAppliesOverrides(t *testing.T) {
	m := compatMatrixFromConfig(map[string]string{
		"supports_developer_role": "false",
		"max_tokens_field":        "max_tokens",
	})
	if m.SupportsDeveloperRole {
		t.Fatal("expected supports_developer_role override to disable the field")
	}
	if m.MaxTokensField != "max_tokens" {
		t.Fatalf("expected max_tokens_field override, got %q", m.MaxTokensField)
	}
}
