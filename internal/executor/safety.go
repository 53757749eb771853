package executor

import (
	"context"
	"fmt"
	"time"
)

// SetLockTimeout bounds how long the migration waits for table locks, so a
// busy table fails the run instead of queueing application queries behind it.
// SET LOCAL scopes it to the current transaction.
func SetLockTimeout(ctx context.Context, tx execer, timeout time.Duration) error {
	sql := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeout.Milliseconds())

	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("setting lock_timeout: %w", err)
	}

	return nil
}

// SetStatementTimeout bounds each statement of the migration.
// SET LOCAL scopes it to the current transaction.
func SetStatementTimeout(ctx context.Context, tx execer, timeout time.Duration) error {
	sql := fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", timeout.Milliseconds())

	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("setting statement_timeout: %w", err)
	}

	return nil
}

// setSessionTimeouts applies both timeouts at session level for work that
// cannot run inside a transaction. Zero leaves a timeout unchanged.
func setSessionTimeouts(ctx context.Context, conn execer, lockTimeout, stmtTimeout time.Duration) error {
	if lockTimeout > 0 {
		if _, err := conn.Exec(ctx, fmt.Sprintf("SET lock_timeout = '%dms'", lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("setting lock_timeout: %w", err)
		}
	}

	if stmtTimeout > 0 {
		if _, err := conn.Exec(ctx, fmt.Sprintf("SET statement_timeout = '%dms'", stmtTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("setting statement_timeout: %w", err)
		}
	}

	return nil
}

// ResetTimeouts restores the session defaults after setSessionTimeouts.
func ResetTimeouts(ctx context.Context, conn execer) error {
	if _, err := conn.Exec(ctx, "RESET lock_timeout; RESET statement_timeout"); err != nil {
		return fmt.Errorf("resetting timeouts: %w", err)
	}

	return nil
}
