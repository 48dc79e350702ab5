// Command agentcore is a minimal host process around the runtime
// library: it loads configuration, wires the provider adapters,
// session store, tool/skill registries, and middleware chain, then
// evaluates one line of stdin as a single turn. A production host
// (an HTTP service, a chat-platform bridge) would replace main's body
// with its own transport and keep everything under internal/ as-is.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/oauth2"

	"github.com/corehaven/agentcore/internal/abort"
	"github.com/corehaven/agentcore/internal/compaction"
	"github.com/corehaven/agentcore/internal/config"
	"github.com/corehaven/agentcore/internal/dispatch"
	"github.com/corehaven/agentcore/internal/events"
	"github.com/corehaven/agentcore/internal/guardrail"
	"github.com/corehaven/agentcore/internal/observability"
	"github.com/corehaven/agentcore/internal/providers"
	"github.com/corehaven/agentcore/internal/runtime"
	"github.com/corehaven/agentcore/internal/session"
	"github.com/corehaven/agentcore/internal/skill"
	"github.com/corehaven/agentcore/internal/tool"
	"github.com/corehaven/agentcore/pkg/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "agentcore.yaml", "path to the configuration file")
	sessionID := flag.String("session", "local", "session id to evaluate against")
	flag.Parse()

	if err := run(*configPath, *sessionID); err != nil {
		fmt.Fprintln(os.Stderr, "agentcore:", err)
		os.Exit(1)
	}
}

func run(configPath, sessionID string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := observability.NewLogger(observability.LogConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	d := dispatch.New()
	if err := registerProviders(context.Background(), d, cfg.Providers); err != nil {
		return fmt.Errorf("register providers: %w", err)
	}

	store, err := buildSessionStore(cfg.Session, log.Slog())
	if err != nil {
		return fmt.Errorf("build session store: %w", err)
	}

	registry := tool.NewRegistry()
	skills := skill.NewRegistry()
	chain := buildGuardrailChain(cfg.Guardrails, log.Slog())
	compactionEngine := compaction.NewEngine(d, cfg.Compaction.Provider, cfg.Compaction.API, cfg.Compaction.TokenBudget, cfg.Compaction.KeepBudget)
	compactionEngine.Logger = log.Slog()
	sig := abort.New()

	registerer := prometheus.NewRegistry()
	promSink := events.NewPrometheusSink(registerer)
	sink := models.MultiSink{promSink}

	if cfg.Server.MetricsPort != 0 {
		go serveMetrics(cfg.Server.Host, cfg.Server.MetricsPort, registerer, log.Slog())
	}

	rt := runtime.New(d, store, registry, skills, chain, compactionEngine, sink, sig, runtime.Options{
		Provider:           cfg.Compaction.Provider,
		API:                cfg.Compaction.API,
		MaxToolConcurrency: cfg.Tools.MaxConcurrency,
		MaxToolIterations:  cfg.Tools.MaxIterations,
	})

	ch := newStdioChannel(sessionID, os.Stdout)
	reader := bufio.NewScanner(os.Stdin)
	ctx := context.Background()
	for reader.Scan() {
		if err := rt.Evaluate(ctx, sessionID, ch, reader.Text()); err != nil {
			log.Slog().Error("evaluate failed", "error", err)
		}
	}
	return reader.Err()
}

// registerProviders builds and registers the adapter for every entry
// in the configured provider map. The map key names the provider
// ("anthropic", "openai", "google"); ProviderConfig.API selects which
// API variant of that provider to speak.
func registerProviders(ctx context.Context, d *dispatch.Dispatcher, configured map[string]config.ProviderConfig) error {
	for name, pc := range configured {
		switch pc.API {
		case "messages":
			d.Register(name, "messages", providers.NewAnthropicMessages(pc.APIKey, pc.DefaultModel))
		case "responses":
			d.Register(name, "responses", providers.NewOpenAIResponses(pc.APIKey, pc.DefaultModel))
		case "completions":
			clientConfig := openai.DefaultConfig(pc.APIKey)
			if pc.BaseURL != "" {
				clientConfig.BaseURL = pc.BaseURL
			}
			d.Register(name, "completions", providers.NewOpenAICompletions(openai.NewClientWithConfig(clientConfig), pc.DefaultModel, compatMatrixFromConfig(pc.Compat)))
		case "genai":
			adapter, err := providers.NewGoogleGenerativeAI(ctx, pc.APIKey, pc.DefaultModel)
			if err != nil {
				return fmt.Errorf("provider %q: %w", name, err)
			}
			d.Register(name, "genai", adapter)
		case "gemini-cli":
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: pc.APIKey})
			d.Register(name, "gemini-cli", providers.NewGoogleGeminiCLI(ctx, ts, pc.BaseURL, pc.ProjectID, pc.DefaultModel))
		case "":
			// unconfigured entry (e.g. an include file contributing
			// only defaults); nothing to register yet.
		default:
			return fmt.Errorf("provider %q: unknown api %q", name, pc.API)
		}
	}
	return nil
}

// compatMatrixFromConfig starts from the default chat-completions
// compat profile and flips fields a provider's config explicitly
// names, so a single openai-compatible adapter can speak to the
// several backends (proxies, local inference servers, other vendors)
// that disagree on these wire details.
func compatMatrixFromConfig(overrides map[string]string) providers.CompatMatrix {
	m := providers.DefaultCompatMatrix()
	for key, value := range overrides {
		enabled := value == "true"
		switch key {
		case "supports_store":
			m.SupportsStore = enabled
		case "supports_developer_role":
			m.SupportsDeveloperRole = enabled
		case "supports_reasoning_effort":
			m.SupportsReasoningEffort = enabled
		case "supports_usage_in_streaming":
			m.SupportsUsageInStreaming = enabled
		case "max_tokens_field":
			m.MaxTokensField = value
		case "requires_tool_result_name":
			m.RequiresToolResultName = enabled
		case "requires_assistant_after_tool_result":
			m.RequiresAssistantAfterToolResult = enabled
		case "requires_thinking_as_text":
			m.RequiresThinkingAsText = enabled
		case "requires_mistral_tool_ids":
			m.RequiresMistralToolIds = enabled
		case "thinking_format":
			m.ThinkingFormat = providers.ThinkingFormat(value)
		}
	}
	return m
}

func buildSessionStore(cfg config.SessionConfig, log *slog.Logger) (session.Store, error) {
	switch cfg.Backend {
	case "file":
		return session.NewFileStore(cfg.Directory, log)
	case "sqlite":
		return session.OpenSQLite(cfg.DSN, log)
	default:
		return session.NewMemoryStore(), nil
	}
}

func buildGuardrailChain(cfg config.GuardrailsConfig, log *slog.Logger) guardrail.Chain {
	var checks []guardrail.Guardrail
	for _, name := range cfg.Enabled {
		switch name {
		case "max-length":
			checks = append(checks, guardrail.Predicate{
				GuardName: "max-length",
				Fn: func(msg models.Message) guardrail.Verdict {
					if len(models.MessageText(msg)) > 32000 {
						return guardrail.Verdict{Passed: false, Reason: "message exceeds max length"}
					}
					return guardrail.Verdict{Passed: true}
				},
			})
		}
	}
	return guardrail.Chain{Guardrails: checks, Logger: log}
}

func serveMetrics(host string, port int, reg *prometheus.Registry, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Info("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics server stopped", "error", err)
	}
}
