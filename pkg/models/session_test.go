package models

import "testing"

// TestInvariant5ReplayReconstructsState is Testable Property 5 from
// spec §8: applying session entries in order to a fresh state must
// reconstruct exactly what load_session would return.
func TestInvariant5ReplayReconstructsState(t *testing.T) {
	entries := []SessionEntry{
		{Messages: []Message{NewUserText("hi")}},
		{Messages: []Message{NewAssistantMessage("anthropic", "messages", "claude-x")}},
		{
			IsCompaction: true,
			Messages: []Message{
				NewCompactionSummaryMessage("summary", 500, 1700000000),
				NewUserText("continuing"),
			},
		},
		{Messages: []Message{NewAssistantMessage("anthropic", "messages", "claude-x")}},
	}

	rebuilt := Rebuild(entries)
	if len(rebuilt.Messages) != 3 {
		t.Fatalf("expected 3 messages after compaction replace + 1 append, got %d", len(rebuilt.Messages))
	}
	if rebuilt.Messages[0].Type != MessageCompactionSummary {
		t.Fatalf("expected compaction summary at index 0, got %v", rebuilt.Messages[0].Type)
	}
}

func TestChannelFlagsNilMeansUnrestricted(t *testing.T) {
	entry := SessionEntry{}
	if entry.HasFlag(ChannelFlagPrivate) || entry.HasFlag(ChannelFlagGroup) {
		t.Fatalf("expected no flags set when ChannelFlags is nil")
	}

	flags := int(ChannelFlagPrivate)
	entry.ChannelFlags = &flags
	if !entry.HasFlag(ChannelFlagPrivate) {
		t.Fatalf("expected private flag set")
	}
	if entry.HasFlag(ChannelFlagGroup) {
		t.Fatalf("expected group flag unset")
	}
}
