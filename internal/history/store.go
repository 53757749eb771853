package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	sqlStateUniqueViolation = "23505"
	sqlStateDuplicateTable  = "42P07"
)

// Querier is the subset of pgx shared by *pgxpool.Pool, *pgxpool.Conn and
// pgx.Tx, so the store runs on whichever session the caller hands it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AppliedMigration is one row of applied_migrations.
type AppliedMigration struct {
	ID         int64 // insertion order
	Filename   string
	Checksum   string // empty for rows written before checksums were tracked
	AppliedAt  time.Time
	DurationMs int
}

// RecordParams contains the fields needed to record a migration as applied.
type RecordParams struct {
	Filename   string
	Checksum   string
	DurationMs int
}

// Store reads and appends the applied_migrations history.
type Store struct {
	db Querier
}

// New creates a Store bound to the given session.
func New(db Querier) *Store {
	return &Store{db: db}
}

// Exists reports whether the history table is present without creating it.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	var exists bool

	if err := s.db.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, TableName).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: checking for %s: %w", ErrRead, TableName, err)
	}

	return exists, nil
}

// EnsureBootstrapped guarantees the history table and its optional columns
// exist. It checks before creating, and a concurrent creator winning the race
// counts as success, so repeated or parallel calls are no-ops.
func (s *Store) EnsureBootstrapped(ctx context.Context) error {
	exists, err := s.Exists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBootstrap, err)
	}

	if !exists {
		if _, err := s.db.Exec(ctx, createTableSQL); err != nil && !isCreateRace(err) {
			return fmt.Errorf("%w: %w", ErrBootstrap, err)
		}

		return nil
	}

	return s.upgradeColumns(ctx)
}

// upgradeColumns adds the optional columns only when missing, avoiding an
// ALTER TABLE lock on every run.
func (s *Store) upgradeColumns(ctx context.Context) error {
	var hasChecksum, hasDuration bool

	if err := s.db.QueryRow(ctx, columnsSQL, TableName).Scan(&hasChecksum, &hasDuration); err != nil {
		return fmt.Errorf("%w: inspecting columns: %w", ErrBootstrap, err)
	}

	if !hasChecksum {
		if _, err := s.db.Exec(ctx, addChecksumSQL); err != nil {
			return fmt.Errorf("%w: adding checksum column: %w", ErrBootstrap, err)
		}
	}

	if !hasDuration {
		if _, err := s.db.Exec(ctx, addDurationMsSQL); err != nil {
			return fmt.Errorf("%w: adding duration_ms column: %w", ErrBootstrap, err)
		}
	}

	return nil
}

// ListApplied returns every history row in insertion order. Callers compare
// this order against key order to detect drift.
func (s *Store) ListApplied(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, filename, COALESCE(checksum, ''), applied_at, COALESCE(duration_ms, 0)
		 FROM applied_migrations
		 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: querying: %w", ErrRead, err)
	}
	defer rows.Close()

	applied, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (AppliedMigration, error) {
		var m AppliedMigration
		if scanErr := row.Scan(&m.ID, &m.Filename, &m.Checksum, &m.AppliedAt, &m.DurationMs); scanErr != nil {
			return AppliedMigration{}, fmt.Errorf("scanning migration row: %w", scanErr)
		}

		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scanning: %w", ErrRead, err)
	}

	return applied, nil
}

// RecordApplied inserts exactly one history row using q, normally the
// transaction that executed the migration, so the row and the migration's
// effect commit together. An existing row yields ErrDuplicateRecord.
func (s *Store) RecordApplied(ctx context.Context, q Querier, p RecordParams) error {
	if q == nil {
		q = s.db
	}

	var checksum *string
	if p.Checksum != "" {
		checksum = &p.Checksum
	}

	_, err := q.Exec(ctx,
		`INSERT INTO applied_migrations (filename, applied_at, checksum, duration_ms)
		 VALUES ($1, now(), $2, $3)`,
		p.Filename, checksum, p.DurationMs,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation {
			return fmt.Errorf("%s: %w", p.Filename, ErrDuplicateRecord)
		}

		return fmt.Errorf("recording migration %s as applied: %w", p.Filename, err)
	}

	return nil
}

// isCreateRace reports the errors PostgreSQL raises when two sessions run
// CREATE TABLE IF NOT EXISTS at the same moment and one loses on the catalog.
func isCreateRace(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	return pgErr.Code == sqlStateUniqueViolation || pgErr.Code == sqlStateDuplicateTable
}
