// Package compaction implements the context-compaction engine (spec
// component J): token estimation, message splitting, chunked
// summarization and history pruning, plus the canonical entrypoint
// (Engine.Compact) that ties those primitives to models.AgentState -
// picking a cut point on a UserMessage boundary, summarizing the
// discarded prefix through a sub-agent call, and rewriting history to
// [summary, ...kept].
package compaction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/corehaven/agentcore/internal/dispatch"
	"github.com/corehaven/agentcore/internal/subagent"
	"github.com/corehaven/agentcore/pkg/models"
)

// Constants for compaction behavior
const (
	// BaseChunkRatio is the default ratio of context window for chunk sizing.
	BaseChunkRatio = 0.4

	// MinChunkRatio is the minimum ratio to prevent overly small chunks.
	MinChunkRatio = 0.15

	// SafetyMargin provides a 20% buffer for token estimation inaccuracy.
	SafetyMargin = 1.2

	// DefaultSummaryFallback is returned when there's no prior history to summarize.
	DefaultSummaryFallback = "No prior history."

	// DefaultParts is the default number of parts for multi-stage summarization.
	DefaultParts = 2

	// OversizedThreshold is the fraction of context window above which a single
	// message is considered too large to summarize (50%).
	OversizedThreshold = 0.5

	// CharsPerToken is the approximate character-to-token ratio for estimation.
	CharsPerToken = 4

	// DefaultContextWindow is the fallback context window size in tokens.
	DefaultContextWindow = 100000

	// DefaultMinMessagesForSplit is the minimum messages needed before splitting.
	DefaultMinMessagesForSplit = 4
)

// Message represents a conversation message for compaction.
type Message struct {
	// Role is the message role (e.g., "user", "assistant", "system").
	Role string

	// Content is the text content of the message.
	Content string

	// Timestamp is the Unix timestamp when the message was created.
	Timestamp int64

	// ID is an optional unique identifier for the message.
	ID string

	// ToolCalls contains any tool call information (serialized).
	ToolCalls string

	// ToolResults contains any tool result information (serialized).
	ToolResults string

	// Metadata contains additional message metadata.
	Metadata map[string]any
}

// EstimateTokens estimates token count for a message using a simple heuristic.
// Approximation: ~4 characters per token.
func EstimateTokens(msg *Message) int {
	if msg == nil {
		return 0
	}
	chars := len(msg.Content) + len(msg.ToolCalls) + len(msg.ToolResults)
	return (chars + CharsPerToken - 1) / CharsPerToken // Ceiling division
}

// EstimateMessagesTokens estimates total tokens across all messages.
func EstimateMessagesTokens(messages []*Message) int {
	total := 0
	for _, msg := range messages {
		total += EstimateTokens(msg)
	}
	return total
}

// SplitMessagesByTokenShare splits messages into N parts with roughly equal token counts.
// This produces balanced chunks for parallel processing.
func SplitMessagesByTokenShare(messages []*Message, parts int) [][]*Message {
	if len(messages) == 0 {
		return nil
	}
	if parts <= 0 {
		parts = DefaultParts
	}
	if parts == 1 || len(messages) < parts {
		return [][]*Message{messages}
	}

	totalTokens := EstimateMessagesTokens(messages)
	targetPerPart := totalTokens / parts

	result := make([][]*Message, 0, parts)
	currentPart := make([]*Message, 0)
	currentTokens := 0

	for i, msg := range messages {
		msgTokens := EstimateTokens(msg)
		currentPart = append(currentPart, msg)
		currentTokens += msgTokens

		// Check if we should start a new part
		remainingParts := parts - len(result) - 1
		isLastMessage := i == len(messages)-1

		if !isLastMessage && remainingParts > 0 && currentTokens >= targetPerPart {
			result = append(result, currentPart)
			currentPart = make([]*Message, 0)
			currentTokens = 0
		}
	}

	// Append any remaining messages
	if len(currentPart) > 0 {
		result = append(result, currentPart)
	}

	return result
}

// ChunkMessagesByMaxTokens splits messages into chunks where each chunk
// does not exceed maxTokens. This ensures hard limits are respected.
func ChunkMessagesByMaxTokens(messages []*Message, maxTokens int) [][]*Message {
	if len(messages) == 0 {
		return nil
	}
	if maxTokens <= 0 {
		return [][]*Message{messages}
	}

	result := make([][]*Message, 0)
	currentChunk := make([]*Message, 0)
	currentTokens := 0

	for _, msg := range messages {
		msgTokens := EstimateTokens(msg)

		// If a single message exceeds maxTokens, it gets its own chunk
		if msgTokens > maxTokens {
			if len(currentChunk) > 0 {
				result = append(result, currentChunk)
				currentChunk = make([]*Message, 0)
				currentTokens = 0
			}
			result = append(result, []*Message{msg})
			continue
		}

		// If adding this message would exceed limit, start new chunk
		if currentTokens+msgTokens > maxTokens && len(currentChunk) > 0 {
			result = append(result, currentChunk)
			currentChunk = make([]*Message, 0)
			currentTokens = 0
		}

		currentChunk = append(currentChunk, msg)
		currentTokens += msgTokens
	}

	// Append any remaining messages
	if len(currentChunk) > 0 {
		result = append(result, currentChunk)
	}

	return result
}

// ComputeAdaptiveChunkRatio computes chunk ratio based on average message size.
// When messages are large, uses smaller chunks to avoid exceeding model limits.
func ComputeAdaptiveChunkRatio(messages []*Message, contextWindow int) float64 {
	if len(messages) == 0 || contextWindow <= 0 {
		return BaseChunkRatio
	}

	totalTokens := EstimateMessagesTokens(messages)
	avgTokensPerMsg := float64(totalTokens) / float64(len(messages))
	windowRatio := avgTokensPerMsg / float64(contextWindow)

	// Scale down ratio for larger messages
	// As messages get larger relative to context, use smaller chunks
	ratio := BaseChunkRatio * (1 - windowRatio*SafetyMargin)
	if ratio < MinChunkRatio {
		ratio = MinChunkRatio
	}
	if ratio > BaseChunkRatio {
		ratio = BaseChunkRatio
	}

	return ratio
}

// IsOversizedForSummary returns true if a single message is too large to summarize.
// A message is considered oversized if it exceeds 50% of the context window.
func IsOversizedForSummary(msg *Message, contextWindow int) bool {
	if msg == nil || contextWindow <= 0 {
		return false
	}
	msgTokens := EstimateTokens(msg)
	threshold := float64(contextWindow) * OversizedThreshold
	return float64(msgTokens) > threshold
}

// SummarizationConfig for summarization operations.
type SummarizationConfig struct {
	// Model is the LLM model identifier to use for summarization.
	Model string

	// APIKey is the API key for the LLM provider.
	APIKey string

	// ReserveTokens is the number of tokens to reserve for the response.
	ReserveTokens int

	// MaxChunkTokens is the maximum tokens per chunk for summarization.
	MaxChunkTokens int

	// ContextWindow is the total context window size in tokens.
	ContextWindow int

	// CustomInstructions are additional instructions for the summarizer.
	CustomInstructions string

	// PreviousSummary is the previous summary to build upon.
	PreviousSummary string

	// Parts is the number of parts for multi-stage summarization.
	Parts int

	// MinMessagesForSplit is the minimum messages required before splitting.
	MinMessagesForSplit int
}

// DefaultSummarizationConfig returns a config with sensible defaults.
func DefaultSummarizationConfig() *SummarizationConfig {
	return &SummarizationConfig{
		ReserveTokens:       2000,
		MaxChunkTokens:      20000,
		ContextWindow:       DefaultContextWindow,
		Parts:               DefaultParts,
		MinMessagesForSplit: DefaultMinMessagesForSplit,
	}
}

// Summarizer interface for generating summaries.
type Summarizer interface {
	// GenerateSummary generates a summary of the given messages.
	GenerateSummary(ctx context.Context, messages []*Message, config *SummarizationConfig) (string, error)
}

// SummarizeChunks summarizes messages in chunks, then merges the chunk summaries.
func SummarizeChunks(ctx context.Context, messages []*Message, summarizer Summarizer, config *SummarizationConfig) (string, error) {
	if len(messages) == 0 {
		return DefaultSummaryFallback, nil
	}
	if summarizer == nil {
		return "", fmt.Errorf("summarizer is nil")
	}
	if config == nil {
		config = DefaultSummarizationConfig()
	}

	maxChunkTokens := config.MaxChunkTokens
	if maxChunkTokens <= 0 {
		maxChunkTokens = int(float64(config.ContextWindow) * BaseChunkRatio)
	}

	chunks := ChunkMessagesByMaxTokens(messages, maxChunkTokens)
	if len(chunks) == 0 {
		return DefaultSummaryFallback, nil
	}

	// If only one chunk, summarize directly
	if len(chunks) == 1 {
		return summarizer.GenerateSummary(ctx, chunks[0], config)
	}

	// Summarize each chunk
	chunkSummaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := summarizer.GenerateSummary(ctx, chunk, config)
		if err != nil {
			return "", fmt.Errorf("summarizing chunk %d: %w", i, err)
		}
		chunkSummaries = append(chunkSummaries, summary)
	}

	// Merge chunk summaries
	return mergeSummaries(ctx, chunkSummaries, summarizer, config)
}

// mergeSummaries combines multiple chunk summaries into a final summary.
func mergeSummaries(ctx context.Context, summaries []string, summarizer Summarizer, config *SummarizationConfig) (string, error) {
	if len(summaries) == 0 {
		return DefaultSummaryFallback, nil
	}
	if len(summaries) == 1 {
		return summaries[0], nil
	}

	// Create synthetic messages from the summaries for the merge pass
	mergeMessages := make([]*Message, len(summaries))
	for i, s := range summaries {
		mergeMessages[i] = &Message{
			Role:    "system",
			Content: fmt.Sprintf("Chunk %d summary:\n%s", i+1, s),
		}
	}

	// Create a merge config with instructions to combine summaries
	mergeConfig := *config
	mergeConfig.CustomInstructions = "Merge these chunk summaries into a single coherent summary. Preserve key details and maintain chronological flow."
	if config.CustomInstructions != "" {
		mergeConfig.CustomInstructions = config.CustomInstructions + "\n\n" + mergeConfig.CustomInstructions
	}

	return summarizer.GenerateSummary(ctx, mergeMessages, &mergeConfig)
}

// SummarizeWithFallback tries full summarization, falls back to partial if oversized.
// For oversized messages, it notes them instead of failing.
func SummarizeWithFallback(ctx context.Context, messages []*Message, summarizer Summarizer, config *SummarizationConfig) (string, error) {
	if len(messages) == 0 {
		return DefaultSummaryFallback, nil
	}
	if summarizer == nil {
		return "", fmt.Errorf("summarizer is nil")
	}
	if config == nil {
		config = DefaultSummarizationConfig()
	}

	// Separate oversized messages from normal ones
	var normal []*Message
	var oversizedNotes []string

	for _, msg := range messages {
		if IsOversizedForSummary(msg, config.ContextWindow) {
			// Note the oversized message instead of including it
			note := fmt.Sprintf("[Oversized %s message with %d tokens - content omitted]",
				msg.Role, EstimateTokens(msg))
			oversizedNotes = append(oversizedNotes, note)
		} else {
			normal = append(normal, msg)
		}
	}

	// Summarize normal messages
	var summary string
	var err error
	if len(normal) > 0 {
		summary, err = SummarizeChunks(ctx, normal, summarizer, config)
		if err != nil {
			return "", fmt.Errorf("summarizing normal messages: %w", err)
		}
	} else {
		summary = DefaultSummaryFallback
	}

	// Append notes about oversized messages
	if len(oversizedNotes) > 0 {
		summary = summary + "\n\n" + strings.Join(oversizedNotes, "\n")
	}

	return summary, nil
}

// SummarizeInStages splits messages into parts, summarizes each, then merges.
// This is useful for very long histories that benefit from parallel processing.
func SummarizeInStages(ctx context.Context, messages []*Message, summarizer Summarizer, config *SummarizationConfig) (string, error) {
	if len(messages) == 0 {
		if config != nil && config.PreviousSummary != "" {
			return config.PreviousSummary, nil
		}
		return DefaultSummaryFallback, nil
	}
	if summarizer == nil {
		return "", fmt.Errorf("summarizer is nil")
	}
	if config == nil {
		config = DefaultSummarizationConfig()
	}

	parts := config.Parts
	if parts <= 0 {
		parts = DefaultParts
	}

	minMessages := config.MinMessagesForSplit
	if minMessages <= 0 {
		minMessages = DefaultMinMessagesForSplit
	}

	// Don't split if not enough messages
	if len(messages) < minMessages {
		summary, err := SummarizeWithFallback(ctx, messages, summarizer, config)
		if err != nil {
			return "", err
		}
		return mergeWithPreviousSummary(ctx, config.PreviousSummary, summary, summarizer, config)
	}

	// Split into parts
	partitions := SplitMessagesByTokenShare(messages, parts)
	if len(partitions) <= 1 {
		summary, err := SummarizeWithFallback(ctx, messages, summarizer, config)
		if err != nil {
			return "", err
		}
		return mergeWithPreviousSummary(ctx, config.PreviousSummary, summary, summarizer, config)
	}

	// Summarize each part
	partSummaries := make([]string, 0, len(partitions))
	for i, partition := range partitions {
		summary, err := SummarizeWithFallback(ctx, partition, summarizer, config)
		if err != nil {
			return "", fmt.Errorf("summarizing part %d: %w", i, err)
		}
		partSummaries = append(partSummaries, summary)
	}

	merged, err := mergeSummaries(ctx, partSummaries, summarizer, config)
	if err != nil {
		return "", err
	}
	return mergeWithPreviousSummary(ctx, config.PreviousSummary, merged, summarizer, config)
}

// summaryUpdateInstructions directs the summarizer to fold a prior
// compaction's summary together with newly-discarded history into one
// updated summary, rather than merging two independent chunk summaries.
const summaryUpdateInstructions = "An existing summary of earlier history follows. Merge it with the new summary into " +
	"a single updated summary covering the full history under the same headings, treating the existing summary as " +
	"established fact and the new summary as its continuation."

// mergeWithPreviousSummary folds a prior compaction's summary into a
// freshly-generated one, so that a second (or later) compaction round
// never re-derives facts already captured by an earlier round - it
// merges instead of re-summarizing from scratch.
func mergeWithPreviousSummary(ctx context.Context, previous, current string, summarizer Summarizer, config *SummarizationConfig) (string, error) {
	if previous == "" || previous == DefaultSummaryFallback {
		return current, nil
	}

	updateConfig := *config
	updateConfig.CustomInstructions = summaryUpdateInstructions
	if config.CustomInstructions != "" {
		updateConfig.CustomInstructions = config.CustomInstructions + "\n\n" + updateConfig.CustomInstructions
	}

	mergeMessages := []*Message{
		{Role: "system", Content: "Existing summary:\n" + previous},
		{Role: "system", Content: "New summary:\n" + current},
	}
	return summarizer.GenerateSummary(ctx, mergeMessages, &updateConfig)
}

// PruneResult contains results from pruning history.
type PruneResult struct {
	// Messages is the pruned message list.
	Messages []*Message

	// DroppedChunks is the number of chunks that were dropped.
	DroppedChunks int

	// DroppedMessages is the total number of messages dropped.
	DroppedMessages int

	// DroppedTokens is the estimated tokens dropped.
	DroppedTokens int

	// KeptTokens is the estimated tokens kept.
	KeptTokens int

	// BudgetTokens is the token budget that was used.
	BudgetTokens int
}

// PruneHistoryForContextShare prunes history to fit within a token budget.
// It keeps the most recent messages up to the budget while respecting chunk boundaries.
func PruneHistoryForContextShare(messages []*Message, maxContextTokens int, maxHistoryShare float64, parts int) *PruneResult {
	result := &PruneResult{
		Messages:     messages,
		BudgetTokens: maxContextTokens,
	}

	if len(messages) == 0 || maxContextTokens <= 0 {
		return result
	}

	if maxHistoryShare <= 0 || maxHistoryShare > 1 {
		maxHistoryShare = 1.0
	}

	budgetTokens := int(float64(maxContextTokens) * maxHistoryShare)
	result.BudgetTokens = budgetTokens

	totalTokens := EstimateMessagesTokens(messages)
	if totalTokens <= budgetTokens {
		result.KeptTokens = totalTokens
		return result
	}

	// Need to prune - work from the end (most recent) backwards
	keptMessages := make([]*Message, 0)
	keptTokens := 0

	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		msgTokens := EstimateTokens(msg)

		if keptTokens+msgTokens > budgetTokens {
			// Can't fit this message
			break
		}

		keptMessages = append([]*Message{msg}, keptMessages...)
		keptTokens += msgTokens
	}

	droppedCount := len(messages) - len(keptMessages)
	droppedTokens := totalTokens - keptTokens

	// Count dropped chunks if we have parts
	droppedChunks := 0
	if parts > 0 && droppedCount > 0 {
		chunks := SplitMessagesByTokenShare(messages, parts)
		for _, chunk := range chunks {
			allDropped := true
			for _, msg := range chunk {
				for _, kept := range keptMessages {
					if msg == kept {
						allDropped = false
						break
					}
				}
				if !allDropped {
					break
				}
			}
			if allDropped {
				droppedChunks++
			}
		}
	}

	result.Messages = keptMessages
	result.DroppedChunks = droppedChunks
	result.DroppedMessages = droppedCount
	result.DroppedTokens = droppedTokens
	result.KeptTokens = keptTokens

	return result
}

// ResolveContextWindowTokens resolves context window size with fallback.
func ResolveContextWindowTokens(modelContextWindow, defaultContextWindow int) int {
	if modelContextWindow > 0 {
		return modelContextWindow
	}
	if defaultContextWindow > 0 {
		return defaultContextWindow
	}
	return DefaultContextWindow
}

// FormatMessagesForSummary formats messages into a string suitable for summarization.
func FormatMessagesForSummary(messages []*Message) string {
	var sb strings.Builder

	for _, msg := range messages {
		if msg == nil {
			continue
		}

		sb.WriteString(fmt.Sprintf("[%s]: ", msg.Role))
		sb.WriteString(msg.Content)

		if msg.ToolCalls != "" {
			sb.WriteString(fmt.Sprintf("\n  [Tool calls: %s]", truncateString(msg.ToolCalls, 200)))
		}
		if msg.ToolResults != "" {
			sb.WriteString(fmt.Sprintf("\n  [Tool results: %s]", truncateString(msg.ToolResults, 200)))
		}

		sb.WriteString("\n\n")
	}

	return sb.String()
}

// truncateString truncates a string to maxLen with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// imageTokenEstimate is the flat token cost assigned to a canonical
// image block, since no cheap byte-based estimate applies to image
// payloads.
const imageTokenEstimate = 1000

// summaryPromptHeader names the structured sections the final summary
// must contain.
const summaryPromptHeader = "Summarize the following conversation transcript for continuation in a new context window. " +
	"Structure your summary under these headings exactly: Goal, Constraints, Progress, Key Decisions, Next Steps, Critical Context."

// toCompactionMessage flattens a canonical models.Message into the
// chunking package's plain Message shape, preserving enough text to
// estimate tokens and to render a transcript.
func toCompactionMessage(m models.Message) *Message {
	switch m.Type {
	case models.MessageUser:
		return &Message{Role: "user", Content: models.MessageText(m)}
	case models.MessageAssistant:
		out := &Message{Role: "assistant", Content: m.Assistant.Text()}
		var calls strings.Builder
		for _, b := range m.Assistant.Content {
			if b.Type == models.BlockToolCall {
				fmt.Fprintf(&calls, "%s(%s) ", b.ToolCall.Name, string(b.ToolCall.Arguments))
			}
		}
		out.ToolCalls = strings.TrimSpace(calls.String())
		return out
	case models.MessageToolResult:
		status := "ok"
		if m.ToolResult.IsError {
			status = "error"
		}
		return &Message{Role: "tool", Content: models.MessageText(m), ToolResults: status}
	case models.MessageCompactionSummary:
		return &Message{Role: "system", Content: m.CompactionSummary.Summary}
	}
	return &Message{Role: "unknown"}
}

// canonicalImageCount counts image blocks across a message so
// EstimateCanonicalTokens can add the flat per-image cost the plain
// Message shape cannot represent.
func canonicalImageCount(m models.Message) int {
	count := 0
	blocks := []models.ContentBlock(nil)
	switch m.Type {
	case models.MessageUser:
		blocks = m.User.Content
	case models.MessageAssistant:
		blocks = m.Assistant.Content
	case models.MessageToolResult:
		blocks = m.ToolResult.Content
	}
	for _, b := range blocks {
		if b.Type == models.BlockImage {
			count++
		}
	}
	return count
}

// EstimateCanonicalTokens estimates a canonical message's token cost:
// ceil((text bytes + tool-argument bytes) / 4) plus a flat cost per
// image block.
func EstimateCanonicalTokens(m models.Message) int {
	return EstimateTokens(toCompactionMessage(m)) + canonicalImageCount(m)*imageTokenEstimate
}

func totalCanonicalTokens(msgs []models.Message) int {
	total := 0
	for _, m := range msgs {
		total += EstimateCanonicalTokens(m)
	}
	return total
}

// CutPoint walks messages from the end accumulating estimated tokens
// until keepBudget is reached, then advances forward to the next
// UserMessage boundary so the kept suffix always starts on a user turn
// - never mid-assistant-turn, which would orphan a tool call pairing.
// It returns the index such that messages[:cut] is discarded and
// messages[cut:] is kept.
func CutPoint(messages []models.Message, keepBudget int) int {
	if len(messages) == 0 {
		return 0
	}

	kept := 0
	i := len(messages)
	for i > 0 && kept < keepBudget {
		i--
		kept += EstimateCanonicalTokens(messages[i])
	}

	for i < len(messages) && messages[i].Type != models.MessageUser {
		i++
	}
	if i >= len(messages) {
		return len(messages)
	}
	return i
}

// dispatcherSummarizer adapts a dispatch.Dispatcher into a Summarizer
// by making one blocking sub-agent call per chunk.
type dispatcherSummarizer struct {
	dispatcher     *dispatch.Dispatcher
	provider, api  string
}

func (s dispatcherSummarizer) GenerateSummary(ctx context.Context, messages []*Message, config *SummarizationConfig) (string, error) {
	prompt := summaryPromptHeader
	if config != nil && config.CustomInstructions != "" {
		prompt = prompt + "\n\n" + config.CustomInstructions
	}
	return subagent.Call(ctx, s.dispatcher, s.provider, s.api, prompt, FormatMessagesForSummary(messages))
}

// Engine runs compaction against a models.AgentState when it exceeds
// budget, grounded on the teacher's compaction pipeline above,
// generalized to the canonical message types and the spec's single
// structured-summary rewrite semantics.
type Engine struct {
	Summarizer  Summarizer
	Config      *SummarizationConfig
	TokenBudget int // triggers compaction once history exceeds this
	KeepBudget  int // tokens to retain uncompacted, walking from the end
	// Logger records summarization failures directly, independent of
	// whatever the caller does with the returned error (the middleware
	// also turns it into an AgentError event for the host's event sink).
	Logger *slog.Logger
}

// NewEngine returns an Engine that summarizes via one blocking sub-agent
// call per chunk against (provider, api).
func NewEngine(d *dispatch.Dispatcher, provider, api string, tokenBudget, keepBudget int) *Engine {
	return &Engine{
		Summarizer:  dispatcherSummarizer{dispatcher: d, provider: provider, api: api},
		Config:      DefaultSummarizationConfig(),
		TokenBudget: tokenBudget,
		KeepBudget:  keepBudget,
		Logger:      slog.Default(),
	}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// NeedsCompaction reports whether state's estimated token total exceeds
// the engine's budget.
func (e *Engine) NeedsCompaction(state *models.AgentState) bool {
	return totalCanonicalTokens(state.Messages) > e.TokenBudget
}

// Compact rewrites state in place if it exceeds budget: the discarded
// prefix is summarized (splitting into chunks first if it is large
// enough to warrant it) and replaced with a single
// CompactionSummaryMessage. On any failure state is left untouched and
// the error is returned so the caller can log it - a failed compaction
// must never corrupt history.
func (e *Engine) Compact(ctx context.Context, state *models.AgentState) error {
	if !e.NeedsCompaction(state) {
		return nil
	}

	cut := CutPoint(state.Messages, e.KeepBudget)
	if cut == 0 {
		return nil
	}

	// A prior compaction leaves its CompactionSummaryMessage at index 0;
	// it is excluded from the discard set and merged forward through an
	// update-variant summary instead of being re-summarized from scratch.
	start := 0
	var prior *models.CompactionSummaryMessage
	if len(state.Messages) > 0 && state.Messages[0].Type == models.MessageCompactionSummary {
		prior = state.Messages[0].CompactionSummary
		start = 1
	}
	if cut <= start {
		return nil
	}

	discarded := state.Messages[start:cut]
	kept := state.Messages[cut:]
	tokensBefore := totalCanonicalTokens(discarded)

	config := e.Config
	if config == nil {
		config = DefaultSummarizationConfig()
	}
	runConfig := *config
	if prior != nil {
		runConfig.PreviousSummary = prior.Summary
		tokensBefore += prior.TokensBefore
	}

	plain := make([]*Message, len(discarded))
	for i, m := range discarded {
		plain[i] = toCompactionMessage(m)
	}

	summary, err := SummarizeInStages(ctx, plain, e.Summarizer, &runConfig)
	if err != nil {
		e.logger().Warn("compaction summary failed, leaving history uncompacted", "messages_discarded", len(discarded), "error", err)
		return fmt.Errorf("compaction summary: %w", err)
	}
	if strings.TrimSpace(summary) == "" {
		e.logger().Warn("compaction summary returned empty text, leaving history uncompacted", "messages_discarded", len(discarded))
		return fmt.Errorf("compaction summary returned empty text")
	}

	summaryMsg := models.NewCompactionSummaryMessage(summary, tokensBefore, 0)
	state.Messages = append([]models.Message{summaryMsg}, kept...)
	state.LastCompaction = &summaryMsg
	return nil
}
