package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrationLockID is the advisory lock identifier serializing orchestrator
// runs against one database.
const migrationLockID int64 = 727274001

// LockHandle wraps a dedicated pooled connection holding a session-level
// advisory lock. Call Release to unlock and return the connection.
type LockHandle struct {
	conn *pgxpool.Conn
}

// TryAcquireLock attempts to take the orchestrator advisory lock on a
// dedicated connection. Returns ErrLockNotAcquired if another process holds
// it. The caller must call Release when done.
func (s *Store) TryAcquireLock(ctx context.Context) (*LockHandle, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for advisory lock: %w", err)
	}

	var acquired bool

	err = conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", migrationLockID).Scan(&acquired)
	if err != nil {
		conn.Release()

		return nil, fmt.Errorf("executing pg_try_advisory_lock: %w", err)
	}

	if !acquired {
		conn.Release()

		return nil, ErrLockNotAcquired
	}

	return &LockHandle{conn: conn}, nil
}

// Release unlocks the advisory lock and returns the connection to the pool.
// Safe to call multiple times; subsequent calls are no-ops.
func (h *LockHandle) Release(ctx context.Context) error {
	if h == nil || h.conn == nil {
		return nil
	}

	_, err := h.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID)
	h.conn.Release()
	h.conn = nil

	if err != nil {
		return fmt.Errorf("releasing advisory lock: %w", err)
	}

	return nil
}
