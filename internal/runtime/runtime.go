// Package runtime wires the canonical data model, provider adapters,
// dispatcher, tool registry, and middleware chain into a single
// evaluation entrypoint. It replaces the teacher's monolithic
// agent.Runtime orchestration loop with composed middleware: the same
// responsibilities (provider selection, tool-call looping, session
// persistence, streaming to the frontend) now live as independent,
// individually-tested middlewares composed in one place instead of as
// one large method.
package runtime

import (
	"context"
	"fmt"

	"github.com/corehaven/agentcore/internal/abort"
	"github.com/corehaven/agentcore/internal/channel"
	"github.com/corehaven/agentcore/internal/compaction"
	"github.com/corehaven/agentcore/internal/dispatch"
	"github.com/corehaven/agentcore/internal/events"
	"github.com/corehaven/agentcore/internal/guardrail"
	"github.com/corehaven/agentcore/internal/middleware"
	"github.com/corehaven/agentcore/internal/session"
	"github.com/corehaven/agentcore/internal/skill"
	"github.com/corehaven/agentcore/internal/tool"
	"github.com/corehaven/agentcore/pkg/models"

	"github.com/google/uuid"
)

// Options configures the composed middleware chain. Fields mirror the
// teacher's RuntimeOptions, narrowed to what the canonical pipeline
// needs: tool-call concurrency/iteration limits, and the provider/API
// pairing the streaming leaf dispatches to.
type Options struct {
	Provider string
	API      string

	MaxToolConcurrency int
	MaxToolIterations  int

	MaxTokens   *int
	Temperature *float64
}

// Runtime holds every long-lived dependency an evaluation needs and
// exposes a single Evaluate entrypoint.
type Runtime struct {
	Dispatcher   *dispatch.Dispatcher
	SessionStore session.Store
	ToolRegistry *tool.Registry
	Skills       *skill.Registry
	Guardrails   guardrail.Chain
	Compaction   *compaction.Engine
	Sink         models.Sink
	Abort        *abort.Signal

	opts    Options
	queue   *middleware.Queue
	lock    *middleware.SessionLock
	handler middleware.Handler
}

// New builds a Runtime and composes its middleware chain in the
// canonical order: session lock, queue, evaluate, skills, input
// guardrail, session, tool-call loop (wrapping channel, steer,
// compaction, and the streaming leaf).
func New(
	d *dispatch.Dispatcher,
	store session.Store,
	registry *tool.Registry,
	skills *skill.Registry,
	guardrails guardrail.Chain,
	compactionEngine *compaction.Engine,
	sink models.Sink,
	sig *abort.Signal,
	opts Options,
) *Runtime {
	if opts.MaxToolConcurrency <= 0 {
		opts.MaxToolConcurrency = 8
	}
	if opts.MaxToolIterations <= 0 {
		opts.MaxToolIterations = middleware.DefaultMaxToolCallIterations
	}
	if sink == nil {
		sink = models.NopSink{}
	}

	invoker := tool.NewInvoker(registry, sink)
	queue := middleware.NewQueue()
	lock := middleware.NewSessionLock()

	leaf := middleware.StreamingLeaf(d, opts.Provider, opts.API, registry, opts.MaxTokens, opts.Temperature)
	innerChain := middleware.Compose(leaf,
		middleware.ChannelMiddleware(),
		middleware.SteerMiddleware(noopSteerSource{}),
		middleware.CompactionMiddleware(compactionEngine),
	)
	toolCallWrapped := middleware.ToolCallMiddleware(invoker, sig, func() string { return uuid.NewString() }, opts.MaxToolConcurrency, opts.MaxToolIterations)(innerChain)

	handler := middleware.Compose(toolCallWrapped,
		lock.Middleware(),
		queue.Middleware(),
		middleware.AbortMiddleware(sig),
		middleware.EvaluateMiddleware(),
		middleware.SkillsMiddleware(skills),
		middleware.InputGuardrailMiddleware(guardrails),
		middleware.SessionMiddleware(store, func() string { return uuid.NewString() }),
	)

	return &Runtime{
		Dispatcher:   d,
		SessionStore: store,
		ToolRegistry: registry,
		Skills:       skills,
		Guardrails:   guardrails,
		Compaction:   compactionEngine,
		Sink:         sink,
		Abort:        sig,
		opts:         opts,
		queue:        queue,
		lock:         lock,
		handler:      handler,
	}
}

// Enqueue folds userText into sessionID's conversation once its
// in-flight evaluation (if any) returns, running the chain again for
// it rather than racing a concurrent Evaluate call against the same
// state.
func (r *Runtime) Enqueue(sessionID, userText string) {
	r.queue.Enqueue(sessionID, models.NewUserText(userText))
}

// Evaluate runs one full turn for sessionID in response to userText
// arriving on ch: it loads the session's replayed state, appends the
// user message, runs the composed middleware chain, and returns once
// the chain (including any tool-call looping) has finished.
func (r *Runtime) Evaluate(ctx context.Context, sessionID string, ch channel.Channel, userText string) error {
	state, err := r.SessionStore.LoadState(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session state: %w", err)
	}
	state.SessionID = sessionID
	state.AppendMessages(models.NewUserText(userText))

	evaluationID := uuid.NewString()
	turn := &middleware.Turn{
		State:        state,
		Channel:      ch,
		Emitter:      events.New(evaluationID, r.Sink),
		EvaluationID: evaluationID,
		SessionID:    sessionID,
	}

	return r.handler(ctx, turn)
}

// noopSteerSource is the default SteerSource for deployments with no
// out-of-band steering channel wired in; Drain always returns nil.
type noopSteerSource struct{}

func (noopSteerSource) Drain() []models.Message { return nil }
