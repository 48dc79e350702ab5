package session

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/corehaven/agentcore/pkg/models"
)

// FileStore persists each session as one append-only JSONL file under a
// root directory, grounded on the teacher's durable file-backed session
// log. A malformed line is skipped with a logged warning rather than
// failing the whole load, since a single corrupt append (e.g. from a
// crash mid-write) should not lose the rest of a session's history.
//
// A small embedded sqlite index tracks entry counts and last-write
// times per session so ListSessions doesn't have to open and scan
// every JSONL file; the journal files remain the source of truth and
// the index can always be rebuilt from them.
type FileStore struct {
	root  string
	mu    sync.Mutex
	log   *slog.Logger
	index *sql.DB
}

// NewFileStore returns a FileStore rooted at dir, creating it and its
// sqlite index if necessary.
func NewFileStore(dir string, log *slog.Logger) (*FileStore, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session store dir: %w", err)
	}

	index, err := sql.Open("sqlite3", filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("open session index: %w", err)
	}
	if _, err := index.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		entry_count INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	)`); err != nil {
		index.Close()
		return nil, fmt.Errorf("create session index table: %w", err)
	}

	return &FileStore{root: dir, log: log, index: index}, nil
}

// Close releases the embedded index's database handle.
func (s *FileStore) Close() error {
	if s.index == nil {
		return nil
	}
	return s.index.Close()
}

// SessionSummary is one row of the embedded index: a session id plus
// its last-known entry count and write time, without reading its
// journal file.
type SessionSummary struct {
	SessionID  string
	EntryCount int
	UpdatedAt  time.Time
}

// ListSessions returns every session the index has observed a write
// for, most recently updated first.
func (s *FileStore) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.index.QueryContext(ctx, `SELECT session_id, entry_count, updated_at FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var (
			summary  SessionSummary
			updated  string
		)
		if err := rows.Scan(&summary.SessionID, &summary.EntryCount, &updated); err != nil {
			return nil, fmt.Errorf("scan session index row: %w", err)
		}
		summary.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated)
		if err != nil {
			return nil, fmt.Errorf("parse session index timestamp: %w", err)
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

func (s *FileStore) touchIndex(ctx context.Context, sessionID string, entryCount int) {
	_, err := s.index.ExecContext(ctx, `INSERT INTO sessions (session_id, entry_count, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET entry_count = excluded.entry_count, updated_at = excluded.updated_at`,
		sessionID, entryCount, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		s.log.Warn("failed to update session index", "session_id", sessionID, "error", err)
	}
}

func (s *FileStore) path(sessionID string) string {
	return filepath.Join(s.root, sessionID+".jsonl")
}

func (s *FileStore) LoadState(ctx context.Context, sessionID string) (*models.AgentState, error) {
	entries, err := s.Entries(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return models.Rebuild(entries), nil
}

func (s *FileStore) AppendEntry(ctx context.Context, sessionID string, entry models.SessionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path(sessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open session file: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal session entry: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append session entry: %w", err)
	}

	count, err := s.countLinesLocked(sessionID)
	if err != nil {
		s.log.Warn("failed to recount session entries for index", "session_id", sessionID, "error", err)
	} else {
		s.touchIndex(ctx, sessionID, count)
	}
	return nil
}

// countLinesLocked counts non-empty lines in sessionID's journal file.
// Callers must hold s.mu.
func (s *FileStore) countLinesLocked(sessionID string) (int, error) {
	f, err := os.Open(s.path(sessionID))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open session file: %w", err)
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			count++
		}
	}
	return count, scanner.Err()
}

func (s *FileStore) Entries(ctx context.Context, sessionID string) ([]models.SessionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path(sessionID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer f.Close()

	var entries []models.SessionEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry models.SessionEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			s.log.Warn("skipping malformed session entry", "session_id", sessionID, "line", lineNo, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan session file: %w", err)
	}
	return entries, nil
}

func (s *FileStore) EntryCount(ctx context.Context, sessionID string) (int, error) {
	entries, err := s.Entries(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

var _ Store = (*FileStore)(nil)
