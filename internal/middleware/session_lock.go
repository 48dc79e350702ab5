package middleware

import (
	"context"
	"sync"
)

// SessionLock serializes evaluations per session id so two concurrent
// triggers for the same conversation never interleave writes to the
// same AgentState, grounded on the teacher's per-conversation mutex
// around the evaluation entrypoint. It is independent of Queue: the
// lock protects concurrent entries into the handler, while Queue
// decides whether a second turn runs at all once the first returns.
type SessionLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionLock returns an empty SessionLock.
func NewSessionLock() *SessionLock {
	return &SessionLock{locks: make(map[string]*sync.Mutex)}
}

func (l *SessionLock) lockFor(sessionID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	return m
}

// Middleware returns the session-lock middleware: it acquires the
// per-session lock before calling next and releases it after next
// returns, including on error or panic.
func (l *SessionLock) Middleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, turn *Turn) error {
			lock := l.lockFor(turn.SessionID)
			lock.Lock()
			defer lock.Unlock()
			return next(ctx, turn)
		}
	}
}
