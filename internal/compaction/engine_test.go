package compaction

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/corehaven/agentcore/pkg/models"
)

func TestCutPointAdvancesToNextUserMessageBoundary(t *testing.T) {
	messages := []models.Message{
		models.NewUserText("first"),
		models.NewAssistantMessage("anthropic", "messages", "claude"),
		models.NewUserText("second"),
		models.NewAssistantMessage("anthropic", "messages", "claude"),
	}
	messages[1].Assistant.AppendText("reply one")
	messages[3].Assistant.AppendText("reply two")

	cut := CutPoint(messages, 1) // tiny budget forces walking back to just the tail
	if cut < 0 || cut > len(messages) {
		t.Fatalf("cut out of range: %d", cut)
	}
	if cut < len(messages) && messages[cut].Type != models.MessageUser {
		t.Fatalf("expected cut point to land on a user message, got %v at %d", messages[cut].Type, cut)
	}
}

func TestCutPointZeroWhenHistoryFitsBudget(t *testing.T) {
	messages := []models.Message{models.NewUserText("hi")}
	if cut := CutPoint(messages, 1_000_000); cut != 0 {
		t.Fatalf("expected 0, got %d", cut)
	}
}

type fakeSummarizer struct {
	text string
	err  error
}

func (f fakeSummarizer) GenerateSummary(ctx context.Context, messages []*Message, config *SummarizationConfig) (string, error) {
	return f.text, f.err
}

func TestEngineCompactRewritesDiscardedPrefixToSummary(t *testing.T) {
	state := models.NewAgentState()
	for i := 0; i < 10; i++ {
		state.AppendMessages(models.NewUserText("padding message number to push past budget"))
	}
	state.AppendMessages(models.NewUserText("keep me"))

	e := &Engine{
		Summarizer:  fakeSummarizer{text: "Goal: ...\nConstraints: ...\nProgress: ...\nKey Decisions: ...\nNext Steps: ...\nCritical Context: ..."},
		Config:      DefaultSummarizationConfig(),
		TokenBudget: 1,
		KeepBudget:  1,
	}

	if err := e.Compact(context.Background(), state); err != nil {
		t.Fatalf("compact: %v", err)
	}
	if state.Messages[0].Type != models.MessageCompactionSummary {
		t.Fatalf("expected first message to be a compaction summary, got %v", state.Messages[0].Type)
	}
	if state.LastCompaction == nil {
		t.Fatalf("expected LastCompaction to be set")
	}
}

func TestEngineCompactLeavesStateUntouchedOnSummarizerError(t *testing.T) {
	state := models.NewAgentState()
	for i := 0; i < 10; i++ {
		state.AppendMessages(models.NewUserText("padding message number to push past budget"))
	}
	original := append([]models.Message(nil), state.Messages...)

	e := &Engine{
		Summarizer:  fakeSummarizer{err: errors.New("provider unavailable")},
		Config:      DefaultSummarizationConfig(),
		TokenBudget: 1,
		KeepBudget:  1,
	}

	if err := e.Compact(context.Background(), state); err == nil {
		t.Fatalf("expected error to propagate")
	}
	if len(state.Messages) != len(original) {
		t.Fatalf("state should be untouched on failure")
	}
}

func TestEngineCompactLogsSummarizerFailure(t *testing.T) {
	var buf bytes.Buffer
	state := models.NewAgentState()
	for i := 0; i < 10; i++ {
		state.AppendMessages(models.NewUserText("padding message number to push past budget"))
	}

	e := &Engine{
		Summarizer:  fakeSummarizer{err: errors.New("provider unavailable")},
		Config:      DefaultSummarizationConfig(),
		TokenBudget: 1,
		KeepBudget:  1,
		Logger:      slog.New(slog.NewTextHandler(&buf, nil)),
	}

	if err := e.Compact(context.Background(), state); err == nil {
		t.Fatalf("expected error to propagate")
	}
	if !bytes.Contains(buf.Bytes(), []byte("compaction summary failed")) {
		t.Fatalf("expected a logged warning, got: %s", buf.String())
	}
}

// capturingSummarizer records the config passed to the last call so a
// test can assert on PreviousSummary plumbing.
type capturingSummarizer struct {
	text       string
	lastConfig *SummarizationConfig
}

func (c *capturingSummarizer) GenerateSummary(ctx context.Context, messages []*Message, config *SummarizationConfig) (string, error) {
	c.lastConfig = config
	return c.text, nil
}

func TestEngineCompactExcludesPriorSummaryFromDiscardAndMergesForward(t *testing.T) {
	state := models.NewAgentState()
	priorSummary := models.NewCompactionSummaryMessage("Goal: ship v1.\nProgress: done phase one.", 400, 0)
	state.Messages = append(state.Messages, priorSummary)
	for i := 0; i < 10; i++ {
		state.AppendMessages(models.NewUserText("padding message number to push past budget"))
	}
	state.AppendMessages(models.NewUserText("keep me"))

	summarizer := &capturingSummarizer{text: "Goal: ...\nConstraints: ...\nProgress: ...\nKey Decisions: ...\nNext Steps: ...\nCritical Context: ..."}
	e := &Engine{
		Summarizer:  summarizer,
		Config:      DefaultSummarizationConfig(),
		TokenBudget: 1,
		KeepBudget:  1,
	}

	if err := e.Compact(context.Background(), state); err != nil {
		t.Fatalf("compact: %v", err)
	}

	if summarizer.lastConfig == nil || summarizer.lastConfig.PreviousSummary != priorSummary.CompactionSummary.Summary {
		t.Fatalf("expected the prior summary to be threaded through as PreviousSummary, got %+v", summarizer.lastConfig)
	}
	if state.Messages[0].Type != models.MessageCompactionSummary {
		t.Fatalf("expected first message to be a compaction summary, got %v", state.Messages[0].Type)
	}
	if state.Messages[0].CompactionSummary.TokensBefore <= priorSummary.CompactionSummary.TokensBefore {
		t.Fatalf("expected tokens_before to accumulate the prior summary's own count, got %d", state.Messages[0].CompactionSummary.TokensBefore)
	}
}

func TestEngineNeedsCompactionRespectsBudget(t *testing.T) {
	state := models.NewAgentState()
	state.AppendMessages(models.NewUserText("short"))
	e := &Engine{TokenBudget: 1_000_000}
	if e.NeedsCompaction(state) {
		t.Fatalf("expected no compaction needed under a huge budget")
	}
	e.TokenBudget = 0
	if !e.NeedsCompaction(state) {
		t.Fatalf("expected compaction needed with zero budget")
	}
}
