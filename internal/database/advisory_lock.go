package database

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationLockName identifies the advisory lock serializing apply runs
// against one database.
const MigrationLockName = "dbmigrate:applied_migrations"

// sqlStateLockNotAvailable is raised when lock_timeout expires.
const sqlStateLockNotAvailable = "55P03"

// LockKey hashes a lock name to the int64 key space of pg_advisory_lock.
func LockKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))

	return int64(h.Sum64() & 0x7FFFFFFFFFFFFFFF) //nolint:gosec // intentional truncation for advisory lock key
}

// LockHandle wraps a dedicated pooled connection that holds a
// session-level advisory lock. Work that must run under the lock should use
// Conn. Call Release to unlock and return the connection to the pool.
type LockHandle struct {
	conn *pgxpool.Conn
	key  int64
}

// Conn returns the connection holding the lock, or nil after Release.
func (h *LockHandle) Conn() *pgxpool.Conn {
	if h == nil {
		return nil
	}

	return h.conn
}

// AcquireLock takes the session-level advisory lock identified by key.
// With wait <= 0 it fails immediately with ErrLockNotAcquired when another
// session holds the lock; otherwise it blocks up to wait before failing the
// same way. The caller must call handle.Release() when done.
func AcquireLock(ctx context.Context, pool *pgxpool.Pool, key int64, wait time.Duration) (*LockHandle, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquiring connection for advisory lock: %w", ErrConnectionFailed, err)
	}

	if wait <= 0 {
		err = tryLock(ctx, conn, key)
	} else {
		err = waitLock(ctx, conn, key, wait)
	}

	if err != nil {
		conn.Release()

		return nil, err
	}

	return &LockHandle{conn: conn, key: key}, nil
}

func tryLock(ctx context.Context, conn *pgxpool.Conn, key int64) error {
	var acquired bool

	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&acquired); err != nil {
		return fmt.Errorf("executing pg_try_advisory_lock: %w", err)
	}

	if !acquired {
		return ErrLockNotAcquired
	}

	return nil
}

// waitLock relies on advisory lock waits honouring lock_timeout.
func waitLock(ctx context.Context, conn *pgxpool.Conn, key int64, wait time.Duration) error {
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET lock_timeout = '%dms'", wait.Milliseconds())); err != nil {
		return fmt.Errorf("setting lock_timeout for advisory lock: %w", err)
	}

	_, lockErr := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", key)

	if _, err := conn.Exec(ctx, "RESET lock_timeout"); err != nil && lockErr == nil {
		return fmt.Errorf("resetting lock_timeout: %w", err)
	}

	if lockErr != nil {
		var pgErr *pgconn.PgError
		if errors.As(lockErr, &pgErr) && pgErr.Code == sqlStateLockNotAvailable {
			return fmt.Errorf("%w after %s", ErrLockNotAcquired, wait)
		}

		return fmt.Errorf("executing pg_advisory_lock: %w", lockErr)
	}

	return nil
}

// Release unlocks the advisory lock and returns the connection to the pool.
// Safe to call multiple times; subsequent calls are no-ops.
func (h *LockHandle) Release(ctx context.Context) error {
	if h == nil || h.conn == nil {
		return nil
	}

	_, err := h.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", h.key)
	h.conn.Release()
	h.conn = nil

	if err != nil {
		return fmt.Errorf("releasing advisory lock: %w", err)
	}

	return nil
}
