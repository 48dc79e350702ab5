package session

import (
	"context"
	"strings"
	"sync"

	"github.com/corehaven/agentcore/pkg/models"
)

// MemoryStore keeps every session's journal in process memory. It is
// the default store for tests and single-process deployments, grounded
// on the teacher's in-memory session backend.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]models.SessionEntry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]models.SessionEntry)}
}

func (s *MemoryStore) LoadState(ctx context.Context, sessionID string) (*models.AgentState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Rebuild(s.sessions[sessionID]), nil
}

func (s *MemoryStore) AppendEntry(ctx context.Context, sessionID string, entry models.SessionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], entry)
	return nil
}

func (s *MemoryStore) Entries(ctx context.Context, sessionID string) ([]models.SessionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SessionEntry(nil), s.sessions[sessionID]...), nil
}

func (s *MemoryStore) EntryCount(ctx context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[sessionID]), nil
}

// SearchSessions implements Searcher with a naive substring scan over
// every entry's text content. Adequate for small/in-memory deployments
// only.
func (s *MemoryStore) SearchSessions(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []SearchHit
	for sessionID, entries := range s.sessions {
		for i, e := range entries {
			for _, m := range e.Messages {
				text := models.MessageText(m)
				if idx := strings.Index(strings.ToLower(text), strings.ToLower(query)); idx >= 0 {
					hits = append(hits, SearchHit{SessionID: sessionID, Index: i, Snippet: snippet(text, idx, len(query))})
					if limit > 0 && len(hits) >= limit {
						return hits, nil
					}
				}
			}
		}
	}
	return hits, nil
}

func snippet(text string, idx, matchLen int) string {
	const radius = 40
	start := idx - radius
	if start < 0 {
		start = 0
	}
	end := idx + matchLen + radius
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}

var (
	_ Store    = (*MemoryStore)(nil)
	_ Searcher = (*MemoryStore)(nil)
)
