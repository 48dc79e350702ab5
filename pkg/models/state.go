package models

// AgentState is the mutable state threaded through one evaluation: the
// ordered message history, accumulated usage, the pending tool-call
// edge produced by the most recent assistant turn, and bookkeeping for
// provider chaining, session identity and compaction.
type AgentState struct {
	Messages            []Message
	LastResponseID      string
	Usage               Usage
	PendingToolCalls    []ToolCall
	MostRecentStopReason StopReason
	SessionID           string

	// LastCompaction is set by the compaction engine in the same turn
	// it rewrites Messages; the session middleware reads it to decide
	// whether to write a compaction journal entry instead of a delta.
	LastCompaction *Message
}

// NewAgentState returns an empty state ready for a fresh evaluation.
func NewAgentState() *AgentState {
	return &AgentState{}
}

// Clone returns a deep-enough copy of the state: the message slice and
// pending-call slice are copied so appends on the clone never alias the
// original. Content blocks themselves are treated as immutable once
// constructed and are not deep-copied.
func (s *AgentState) Clone() *AgentState {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Messages != nil {
		clone.Messages = append([]Message(nil), s.Messages...)
	}
	if s.PendingToolCalls != nil {
		clone.PendingToolCalls = append([]ToolCall(nil), s.PendingToolCalls...)
	}
	clone.LastCompaction = nil
	return &clone
}

// CommittedMessages returns the messages that form the committed
// history: everything up to and including the last assistant message.
// Pending tool calls are the uncommitted edge and are not part of this
// slice.
func (s *AgentState) CommittedMessages() []Message {
	return s.Messages
}

// LastAssistantMessage returns the most recent assistant message in the
// state, or nil if none exists yet.
func (s *AgentState) LastAssistantMessage() *Message {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Type == MessageAssistant {
			m := s.Messages[i]
			return &m
		}
	}
	return nil
}

// AppendMessages appends messages to the state's history in order.
func (s *AgentState) AppendMessages(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
}

// PendingCallByID returns the pending tool call with the given call id,
// if any.
func (s *AgentState) PendingCallByID(callID string) (ToolCall, bool) {
	for _, tc := range s.PendingToolCalls {
		if tc.CallID == callID {
			return tc, true
		}
	}
	return ToolCall{}, false
}

// Validate checks the tool-call pairing invariant: for every
// ToolCallBlock inside a committed assistant message, the next message
// must be either a ToolResultMessage with the matching call id or
// another assistant message (which implies adapter-level normalization
// already injected a synthetic result at the wire boundary, so no
// checkable pairing exists in the canonical history itself). It returns
// the ids of tool calls with no following result message at all.
func (s *AgentState) Validate() (orphans []string) {
	for i, msg := range s.Messages {
		if msg.Type != MessageAssistant || msg.Assistant == nil {
			continue
		}
		for _, block := range msg.Assistant.Content {
			if block.Type != BlockToolCall || block.ToolCall == nil {
				continue
			}
			callID := block.ToolCall.CallID
			if !hasMatchingResult(s.Messages[i+1:], callID) {
				orphans = append(orphans, callID)
			}
		}
	}
	return orphans
}

func hasMatchingResult(rest []Message, callID string) bool {
	for _, m := range rest {
		if m.Type == MessageAssistant {
			// Next assistant turn began before a result arrived for
			// this call; the wire-level normalization pass is
			// responsible for synthesizing one, so the canonical
			// history itself is considered satisfied here only if a
			// result already exists earlier in rest.
			return false
		}
		if m.Type == MessageToolResult && m.ToolResult != nil && m.ToolResult.CallID == callID {
			return true
		}
	}
	return false
}
