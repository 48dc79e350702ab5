package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "agentcore.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
providers:
  anthropic:
    api: messages
    default_model: claude-test
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Session.Backend != "memory" {
		t.Fatalf("expected default session backend memory, got %q", cfg.Session.Backend)
	}
	if cfg.Tools.MaxConcurrency != 8 {
		t.Fatalf("expected default max concurrency 8, got %d", cfg.Tools.MaxConcurrency)
	}
	if cfg.Compaction.TokenBudget != 100000 {
		t.Fatalf("expected default token budget 100000, got %d", cfg.Compaction.TokenBudget)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected default logging format json, got %q", cfg.Logging.Format)
	}
}

func TestLoadResolvesIncludes(t *testing.T) {
	dir := t.TempDir()
	includedPath := filepath.Join(dir, "providers.yaml")
	if err := os.WriteFile(includedPath, []byte("providers:\n  openai:\n    api: completions\n"), 0o600); err != nil {
		t.Fatalf("write include: %v", err)
	}
	rootPath := filepath.Join(dir, "agentcore.yaml")
	if err := os.WriteFile(rootPath, []byte("$include: providers.yaml\nsession:\n  backend: file\n"), 0o600); err != nil {
		t.Fatalf("write root: %v", err)
	}

	cfg, err := Load(rootPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := cfg.Providers["openai"]; !ok {
		t.Fatalf("expected included provider config to merge in, got %+v", cfg.Providers)
	}
	if cfg.Session.Backend != "file" {
		t.Fatalf("expected session backend file, got %q", cfg.Session.Backend)
	}
}

func TestLoadRejectsInvalidSessionBackend(t *testing.T) {
	path := writeTempConfig(t, "session:\n  backend: carrier-pigeon\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unknown session backend")
	}
}

func TestLoadRejectsKeepBudgetAboveTokenBudget(t *testing.T) {
	path := writeTempConfig(t, "compaction:\n  token_budget: 1000\n  keep_budget: 2000\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for keep_budget >= token_budget")
	}
}

func TestJSONSchemaReflectsConfigFields(t *testing.T) {
	doc, err := JSONSchema()
	if err != nil {
		t.Fatalf("JSONSchema: %v", err)
	}
	if len(doc) == 0 {
		t.Fatal("expected non-empty schema document")
	}
}

func TestApplyEnvOverridesInjectsProviderAPIKey(t *testing.T) {
	t.Setenv("AGENTCORE_PROVIDER_ANTHROPIC_API_KEY", "sk-test-123")
	cfg := &Config{Providers: map[string]ProviderConfig{"anthropic": {API: "messages"}}}
	applyEnvOverrides(cfg)
	if cfg.Providers["anthropic"].APIKey != "sk-test-123" {
		t.Fatalf("expected env override to set api key, got %+v", cfg.Providers["anthropic"])
	}
}
