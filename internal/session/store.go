// Package session persists the append-only journal of SessionEntry
// records a conversation is rebuilt from (spec component D).
package session

import (
	"context"

	"github.com/corehaven/agentcore/pkg/models"
)

// Store is the session-journal contract. Implementations must make
// AppendEntry durable before returning, and Entries must return
// entries in append order.
type Store interface {
	// LoadState rebuilds the AgentState for sessionID by replaying its
	// journal. It returns a fresh empty state if the session has never
	// been written to.
	LoadState(ctx context.Context, sessionID string) (*models.AgentState, error)

	// AppendEntry durably appends one journal entry.
	AppendEntry(ctx context.Context, sessionID string, entry models.SessionEntry) error

	// Entries returns every entry recorded for sessionID, in append
	// order.
	Entries(ctx context.Context, sessionID string) ([]models.SessionEntry, error)

	// EntryCount returns len(Entries(...)) without necessarily
	// deserializing every entry.
	EntryCount(ctx context.Context, sessionID string) (int, error)
}

// Searcher is implemented by stores that can search across sessions by
// substring match against entry text content. Not every Store backend
// supports this.
type Searcher interface {
	SearchSessions(ctx context.Context, query string, limit int) ([]SearchHit, error)
}

// SearchHit identifies one matching entry within a session.
type SearchHit struct {
	SessionID string
	Index     int
	Snippet   string
}
