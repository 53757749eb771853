package executor

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// beginner starts a transaction. *pgxpool.Pool and *pgxpool.Conn satisfy it.
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// execer runs a statement. pgx.Tx, *pgxpool.Conn and *pgxpool.Pool satisfy it.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ExecInTransaction runs fn inside a database transaction.
// On success the transaction is committed; on error it is rolled back, so
// nothing fn did is visible to later reads.
func ExecInTransaction(ctx context.Context, db beginner, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // rollback on committed tx returns ErrTxClosed

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// ExecWithoutTransaction sends each statement on its own, outside any
// transaction block. Required for statements like CREATE INDEX CONCURRENTLY.
// It stops at the first failing statement; earlier ones stay applied.
func ExecWithoutTransaction(ctx context.Context, db execer, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("executing statement %d outside transaction: %w", i+1, err)
		}
	}

	return nil
}
