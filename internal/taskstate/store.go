// Package taskstate persists per-task tool-protocol locks in SQLite. Once a
// task has sent a request under one protocol, switching mid-task would strand
// half the history in the other lowering, so the first recorded protocol wins
// for the task's lifetime.
package taskstate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aperrin/chatwire/internal/protocol"
)

// Store records protocol locks keyed by task id.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS task_protocol (
		task_id TEXT PRIMARY KEY,
		protocol TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`)
	return err
}

// LockProtocol records p as the task's protocol. A task that is already
// locked keeps its original protocol; the call is then a no-op.
func (s *Store) LockProtocol(ctx context.Context, taskID string, p protocol.Protocol) error {
	if !p.Valid() {
		return fmt.Errorf("invalid protocol %q", p)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO task_protocol (task_id, protocol, created_at) VALUES (?, ?, ?)`,
		taskID, string(p), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to lock protocol: %w", err)
	}
	return nil
}

// LockedProtocol returns the task's locked protocol, or false if the task has
// none recorded.
func (s *Store) LockedProtocol(ctx context.Context, taskID string) (protocol.Protocol, bool, error) {
	var p string
	err := s.db.QueryRowContext(ctx,
		`SELECT protocol FROM task_protocol WHERE task_id = ?`, taskID,
	).Scan(&p)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read protocol lock: %w", err)
	}
	return protocol.Protocol(p), true, nil
}

// ClearTask drops the task's lock, typically when the task completes.
func (s *Store) ClearTask(ctx context.Context, taskID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM task_protocol WHERE task_id = ?`, taskID)
	if err != nil {
		return fmt.Errorf("failed to clear task: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
