package events

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/corehaven/agentcore/pkg/models"
)

// PrometheusSink publishes turn, tool-call and token counters to a
// prometheus registry. Grounded on the teacher's metrics package, which
// registers a small fixed set of counters/histograms rather than
// dynamic per-tool label cardinality explosion.
type PrometheusSink struct {
	turns       prometheus.Counter
	toolCalls   *prometheus.CounterVec
	errors      prometheus.Counter
	toolLatency prometheus.Histogram
	tokens      *prometheus.CounterVec
}

// NewPrometheusSink registers its metrics against reg and returns a
// sink ready to Emit. Pass prometheus.DefaultRegisterer for the global
// registry.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		turns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agentcore",
			Name:      "turns_total",
			Help:      "Completed evaluation turns.",
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentcore",
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agentcore",
			Name:      "agent_errors_total",
			Help:      "Non-recoverable errors raised during evaluation.",
		}),
		toolLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agentcore",
			Name:      "tool_call_duration_ms",
			Help:      "Tool call wall-clock duration in milliseconds.",
			Buckets:   prometheus.ExponentialBuckets(5, 2, 12),
		}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentcore",
			Name:      "tokens_total",
			Help:      "Accumulated token usage by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(s.turns, s.toolCalls, s.errors, s.toolLatency, s.tokens)
	return s
}

// Emit implements models.Sink.
func (s *PrometheusSink) Emit(e models.Event) {
	switch e.Kind {
	case models.EventTurnEnd:
		s.turns.Inc()
	case models.EventToolExecutionEnd:
		outcome := "ok"
		if e.ToolResult != nil && e.ToolResult.IsError {
			outcome = "error"
		}
		name := ""
		if e.ToolCall != nil {
			name = e.ToolCall.Name
		}
		s.toolCalls.WithLabelValues(name, outcome).Inc()
		s.toolLatency.Observe(float64(e.DurationMS))
	case models.EventAgentError:
		s.errors.Inc()
	case models.EventAgentEvaluateEnd:
		if e.FinalState != nil {
			u := e.FinalState.Usage
			s.tokens.WithLabelValues("input").Add(float64(u.Input))
			s.tokens.WithLabelValues("output").Add(float64(u.Output))
			s.tokens.WithLabelValues("cache_read").Add(float64(u.CacheRead))
			s.tokens.WithLabelValues("cache_write").Add(float64(u.CacheWrite))
		}
	}
}
