package events

import (
	"sync"

	"github.com/corehaven/agentcore/pkg/models"
)

// Stats accumulates per-evaluation counters from an event stream.
// Grounded on the teacher's run-summary accumulator, generalized from
// its channel-message counters to the spec's turn/tool/token counters.
type Stats struct {
	Turns         int
	ToolCalls     int
	ToolErrors    int
	Errors        int
	Usage         models.Usage
	ToolDurations []int64
}

// StatsCollector is a models.Sink that folds events into a Stats
// snapshot, safe for concurrent Emit calls.
type StatsCollector struct {
	mu    sync.Mutex
	stats Stats
}

// NewStatsCollector returns an empty collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{}
}

// Emit implements models.Sink.
func (c *StatsCollector) Emit(e models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Kind {
	case models.EventTurnEnd:
		c.stats.Turns++
		if e.TurnErr != nil {
			c.stats.Errors++
		}
	case models.EventToolExecutionEnd:
		c.stats.ToolCalls++
		c.stats.ToolDurations = append(c.stats.ToolDurations, e.DurationMS)
		if e.ToolResult != nil && e.ToolResult.IsError {
			c.stats.ToolErrors++
		}
	case models.EventAgentError:
		c.stats.Errors++
	case models.EventAgentEvaluateEnd:
		if e.FinalState != nil {
			c.stats.Usage = e.FinalState.Usage
		}
	}
}

// Snapshot returns a copy of the accumulated stats.
func (c *StatsCollector) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.stats
	out.ToolDurations = append([]int64(nil), c.stats.ToolDurations...)
	return out
}
