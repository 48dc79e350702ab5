package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/corehaven/agentcore/pkg/models"

	_ "modernc.org/sqlite"
)

// SQLStore persists sessions in a SQL table, one row per journal entry,
// via database/sql. Grounded on the teacher's SQL-backed session store;
// generalized here to modernc.org/sqlite's pure-Go driver so the store
// needs no cgo toolchain. Any database/sql driver registered under the
// given driver name works (for example github.com/mattn/go-sqlite3 for
// a cgo build, or a Postgres driver pointed at a sessions table with
// the same schema).
type SQLStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLStore opens (or attaches to) db and ensures the sessions table
// exists.
func NewSQLStore(db *sql.DB, log *slog.Logger) (*SQLStore, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &SQLStore{db: db, log: log}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenSQLite opens a modernc.org/sqlite database at path and returns a
// ready SQLStore.
func OpenSQLite(path string, log *slog.Logger) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return NewSQLStore(db, log)
}

func (s *SQLStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS session_entries (
	session_id TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	PRIMARY KEY (session_id, seq)
)`)
	if err != nil {
		return fmt.Errorf("migrate session_entries: %w", err)
	}
	return nil
}

func (s *SQLStore) LoadState(ctx context.Context, sessionID string) (*models.AgentState, error) {
	entries, err := s.Entries(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return models.Rebuild(entries), nil
}

func (s *SQLStore) AppendEntry(ctx context.Context, sessionID string, entry models.SessionEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal session entry: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO session_entries (session_id, seq, payload)
VALUES (?, (SELECT COALESCE(MAX(seq), -1) + 1 FROM session_entries WHERE session_id = ?), ?)`,
		sessionID, sessionID, string(payload))
	if err != nil {
		return fmt.Errorf("append session entry: %w", err)
	}
	return nil
}

func (s *SQLStore) Entries(ctx context.Context, sessionID string) ([]models.SessionEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, payload FROM session_entries WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session entries: %w", err)
	}
	defer rows.Close()

	var entries []models.SessionEntry
	for rows.Next() {
		var seq int
		var payload string
		if err := rows.Scan(&seq, &payload); err != nil {
			return nil, fmt.Errorf("scan session entry: %w", err)
		}
		var entry models.SessionEntry
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			s.log.Warn("skipping malformed session entry", "session_id", sessionID, "seq", seq, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLStore) EntryCount(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM session_entries WHERE session_id = ?`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count session entries: %w", err)
	}
	return count, nil
}

var _ Store = (*SQLStore)(nil)
