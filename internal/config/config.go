// Package config loads and validates the runtime configuration for an
// agentcore deployment: which providers are configured, how sessions
// are persisted, and the ambient tuning knobs for compaction,
// guardrails, and tool-call concurrency.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the root configuration document for an agentcore process.
type Config struct {
	Server     ServerConfig              `yaml:"server"`
	Providers  map[string]ProviderConfig `yaml:"providers"`
	Session    SessionConfig             `yaml:"session"`
	Compaction CompactionConfig          `yaml:"compaction"`
	Guardrails GuardrailsConfig          `yaml:"guardrails"`
	Tools      ToolsConfig               `yaml:"tools"`
	Logging    LoggingConfig             `yaml:"logging"`
	Tracing    TracingConfig             `yaml:"tracing"`
}

// ServerConfig controls the process's own listening ports.
type ServerConfig struct {
	Host        string `yaml:"host"`
	HTTPPort    int    `yaml:"http_port"`
	MetricsPort int    `yaml:"metrics_port"`
}

// ProviderConfig describes one named provider/API pairing (e.g.
// "anthropic", "openai", "openai-compat:groq", "google").
type ProviderConfig struct {
	API          string            `yaml:"api"`
	APIKey       string            `yaml:"api_key"`
	BaseURL      string            `yaml:"base_url"`
	DefaultModel string            `yaml:"default_model"`
	ProjectID    string            `yaml:"project_id"`
	Compat       map[string]string `yaml:"compat"`
}

// SessionConfig selects and tunes the session store backend.
type SessionConfig struct {
	// Backend is one of "memory", "file", or "sqlite".
	Backend string `yaml:"backend"`

	// Directory is the JSONL root used by the file backend.
	Directory string `yaml:"directory"`

	// DSN is the sqlite database path used by the sqlite backend.
	DSN string `yaml:"dsn"`
}

// CompactionConfig tunes the compaction engine's budgets.
type CompactionConfig struct {
	Provider     string `yaml:"provider"`
	API          string `yaml:"api"`
	TokenBudget  int    `yaml:"token_budget"`
	KeepBudget   int    `yaml:"keep_budget"`
	ContextShare int    `yaml:"context_share_percent"`
}

// GuardrailsConfig lists which named guardrails are active on input.
type GuardrailsConfig struct {
	Enabled []string `yaml:"enabled"`
}

// ToolsConfig tunes the tool-call loop.
type ToolsConfig struct {
	MaxConcurrency int `yaml:"max_concurrency"`
	MaxIterations  int `yaml:"max_iterations"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig controls OpenTelemetry span export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Endpoint     string  `yaml:"endpoint"`
	ServiceName  string  `yaml:"service_name"`
	SamplingRate float64 `yaml:"sampling_rate"`
	Insecure     bool    `yaml:"insecure"`
}

// Load reads and parses a YAML or JSON5 configuration file, resolving
// $include directives and environment variable expansion, applying
// env-var overrides and defaults, and validating the result.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, err
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applySessionDefaults(&cfg.Session)
	applyCompactionDefaults(&cfg.Compaction)
	applyToolsDefaults(&cfg.Tools)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = 8080
	}
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = 9090
	}
}

func applySessionDefaults(cfg *SessionConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "memory"
	}
	if cfg.Backend == "file" && cfg.Directory == "" {
		cfg.Directory = "./sessions"
	}
	if cfg.Backend == "sqlite" && cfg.DSN == "" {
		cfg.DSN = "./sessions.db"
	}
}

func applyCompactionDefaults(cfg *CompactionConfig) {
	if cfg.TokenBudget == 0 {
		cfg.TokenBudget = 100000
	}
	if cfg.KeepBudget == 0 {
		cfg.KeepBudget = cfg.TokenBudget / 4
	}
	if cfg.ContextShare == 0 {
		cfg.ContextShare = 80
	}
}

func applyToolsDefaults(cfg *ToolsConfig) {
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 8
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = 25
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
}

// applyEnvOverrides lets deployments inject provider API keys without
// writing them to the config file. AGENTCORE_PROVIDER_<NAME>_API_KEY
// overrides providers.<name>.api_key; AGENTCORE_LOG_LEVEL overrides
// logging.level.
func applyEnvOverrides(cfg *Config) {
	for name, provider := range cfg.Providers {
		envVar := "AGENTCORE_PROVIDER_" + strings.ToUpper(sanitizeEnvName(name)) + "_API_KEY"
		if v := os.Getenv(envVar); v != "" {
			provider.APIKey = v
			cfg.Providers[name] = provider
		}
	}
	if v := os.Getenv("AGENTCORE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("AGENTCORE_TRACING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tracing.Enabled = b
		}
	}
}

func sanitizeEnvName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}

// ConfigValidationError reports a single invalid configuration field.
type ConfigValidationError struct {
	Field  string
	Reason string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("config field %q: %s", e.Field, e.Reason)
}

func validateConfig(cfg *Config) error {
	switch cfg.Session.Backend {
	case "memory", "file", "sqlite":
	default:
		return &ConfigValidationError{Field: "session.backend", Reason: "must be one of memory, file, sqlite"}
	}
	if cfg.Compaction.KeepBudget >= cfg.Compaction.TokenBudget {
		return &ConfigValidationError{Field: "compaction.keep_budget", Reason: "must be smaller than compaction.token_budget"}
	}
	if cfg.Tools.MaxConcurrency <= 0 {
		return &ConfigValidationError{Field: "tools.max_concurrency", Reason: "must be positive"}
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return &ConfigValidationError{Field: "logging.format", Reason: "must be json or text"}
	}
	return nil
}
