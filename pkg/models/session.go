package models

// ChannelFlag bits record metadata about the channel that produced a
// session entry. An absent *int (nil) means "legacy / unrestricted".
type ChannelFlag int

const (
	ChannelFlagPrivate ChannelFlag = 1 << iota // 0x01
	ChannelFlagGroup                           // 0x02
)

// SessionEntry is one append-only journal record for a session: either
// a normal delta (messages produced by one middleware call) or a
// compaction entry (full post-compaction state, IsCompaction=true).
type SessionEntry struct {
	ID            string
	CreatedAt     int64 // unix seconds
	Messages      []Message
	IsCompaction  bool
	UserID        *string
	PostID        *string
	ChannelID     *string
	ChannelFlags  *int
}

// HasFlag reports whether the given bit is set in ChannelFlags. It
// returns false when ChannelFlags is nil (legacy/unrestricted entries
// carry no flags at all).
func (e SessionEntry) HasFlag(flag ChannelFlag) bool {
	if e.ChannelFlags == nil {
		return false
	}
	return *e.ChannelFlags&int(flag) != 0
}

// Apply folds one journal entry into a state: a compaction entry
// replaces Messages wholesale, a delta entry appends.
func Apply(state *AgentState, entry SessionEntry) {
	if entry.IsCompaction {
		state.Messages = append([]Message(nil), entry.Messages...)
		return
	}
	state.Messages = append(state.Messages, entry.Messages...)
}

// Rebuild replays a full ordered list of journal entries onto a fresh
// state, reconstructing exactly what incremental appends produced.
func Rebuild(entries []SessionEntry) *AgentState {
	state := NewAgentState()
	for _, e := range entries {
		Apply(state, e)
	}
	return state
}
