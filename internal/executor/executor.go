package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/lexilight/dbmigrate/internal/database"
	"github.com/lexilight/dbmigrate/internal/history"
	"github.com/lexilight/dbmigrate/internal/migration"
	"github.com/lexilight/dbmigrate/internal/parser"
	"github.com/lexilight/dbmigrate/internal/reconcile"
)

// Progress status constants reported via ProgressEvent.
const (
	StatusStarting  = "starting"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped" // dry run: would be applied
	StatusDrift     = "drift"
)

// ProgressEvent is emitted by the executor for each anomaly and each
// migration processed.
type ProgressEvent struct {
	Migration *migration.Migration
	Anomaly   *reconcile.Anomaly
	Status    string
	Duration  time.Duration
	Error     error
}

// Report summarises one apply run.
type Report struct {
	RunID   string
	Result  *reconcile.Result
	Applied []string // filenames applied by this run, in order
}

// HistoryStore abstracts applied_migrations operations for testability.
type HistoryStore interface {
	Exists(ctx context.Context) (bool, error)
	EnsureBootstrapped(ctx context.Context) error
	ListApplied(ctx context.Context) ([]history.AppliedMigration, error)
	RecordApplied(ctx context.Context, q history.Querier, p history.RecordParams) error
}

// Session is the connection an apply run holds the advisory lock on. All of
// the run's statements go through it.
type Session interface {
	history.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// lockReleaser is returned by lockFunc and must be released when done.
type lockReleaser interface {
	Release(ctx context.Context) error
}

// lockFunc acquires the advisory lock and returns the session holding it.
type lockFunc func(ctx context.Context) (lockReleaser, Session, error)

// runFunc executes one migration and calls record inside the same atomic unit.
type runFunc func(ctx context.Context, sess Session, m *migration.Migration, record func(q history.Querier) error) error

// Executor is the applier: it serializes runs with an advisory lock,
// reconciles files against history under that lock, and applies pending
// migrations in key order, each together with its history row.
type Executor struct {
	pool             *pgxpool.Pool
	lockWait         time.Duration
	lockTimeout      time.Duration
	statementTimeout time.Duration
	dryRun           bool
	onProgress       func(ProgressEvent)
	logger           zerolog.Logger
	runID            string
	acquireLock      lockFunc
	newStore         func(Session) HistoryStore
	run              runFunc
}

// Option configures an Executor.
type Option func(*Executor)

// WithLockWait makes a run wait up to d for another run's lock instead of
// failing immediately.
func WithLockWait(d time.Duration) Option {
	return func(e *Executor) { e.lockWait = d }
}

// WithLockTimeout sets the per-transaction lock_timeout.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Executor) { e.lockTimeout = d }
}

// WithStatementTimeout sets the per-transaction statement_timeout.
func WithStatementTimeout(d time.Duration) Option {
	return func(e *Executor) { e.statementTimeout = d }
}

// WithDryRun enables dry-run mode where no migration SQL is executed.
func WithDryRun(b bool) Option {
	return func(e *Executor) { e.dryRun = b }
}

// WithProgressCallback sets a function called for each anomaly and migration.
func WithProgressCallback(fn func(ProgressEvent)) Option {
	return func(e *Executor) { e.onProgress = fn }
}

// WithLogger sets the structured logger. Defaults to a disabled logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// New creates an Executor for the given pool.
func New(pool *pgxpool.Pool, opts ...Option) *Executor {
	e := &Executor{
		pool:   pool,
		logger: zerolog.Nop(),
		runID:  uuid.NewString(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.With().Str("run_id", e.runID).Logger()

	// Set defaults for injectable functions after options are applied,
	// so tests can override them.
	if e.acquireLock == nil {
		e.acquireLock = e.lockDatabase
	}

	if e.newStore == nil {
		e.newStore = func(s Session) HistoryStore { return history.New(s) }
	}

	if e.run == nil {
		e.run = e.executeMigration
	}

	return e
}

// RunID identifies this executor's run in logs.
func (e *Executor) RunID() string { return e.runID }

// Apply takes the migration lock, bootstraps the history table, reconciles
// files against history, and applies every pending migration in key order.
// It stops at the first failure and returns an *ApplyError naming the file;
// the returned Report still lists what was applied before it. A dry run
// only reads history and never creates the table.
func (e *Executor) Apply(ctx context.Context, files []migration.Migration) (*Report, error) {
	lock, sess, err := e.acquireLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring migration lock: %w", err)
	}

	e.logger.Debug().Msg("migration lock acquired")

	defer func() {
		if relErr := lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			e.logger.Warn().Err(relErr).Msg("releasing migration lock")
		}
	}()

	store := e.newStore(sess)

	applied, err := e.readHistory(ctx, store)
	if err != nil {
		return nil, err
	}

	res := reconcile.Reconcile(files, applied)
	report := &Report{RunID: e.runID, Result: res}

	for i := range res.Anomalies {
		a := &res.Anomalies[i]
		e.logger.Warn().Str("kind", string(a.Kind)).Str("file", a.Filename).Msg(a.Message)
		e.fireProgress(ProgressEvent{Anomaly: a, Status: StatusDrift})
	}

	pending := res.Pending()
	e.logger.Info().Int("pending", len(pending)).Int("applied", len(applied)).Bool("dry_run", e.dryRun).Msg("reconciled")

	for i := range pending {
		m := &pending[i]

		if e.dryRun {
			e.fireProgress(ProgressEvent{Migration: m, Status: StatusSkipped})
			continue
		}

		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("apply interrupted before %s: %w", m.Filename, err)
		}

		if err := e.applyOne(ctx, sess, store, m); err != nil {
			return report, err
		}

		report.Applied = append(report.Applied, m.Filename)
	}

	return report, nil
}

func (e *Executor) readHistory(ctx context.Context, store HistoryStore) ([]history.AppliedMigration, error) {
	if !e.dryRun {
		if err := store.EnsureBootstrapped(ctx); err != nil {
			return nil, err
		}

		return store.ListApplied(ctx)
	}

	ok, err := store.Exists(ctx)
	if err != nil {
		return nil, err
	}

	if !ok {
		e.logger.Debug().Msg("history table absent, treating every file as pending")
		return nil, nil
	}

	return store.ListApplied(ctx)
}

// applyOne executes a single migration and records it atomically, firing
// progress events around it.
func (e *Executor) applyOne(ctx context.Context, sess Session, store HistoryStore, m *migration.Migration) error {
	e.fireProgress(ProgressEvent{Migration: m, Status: StatusStarting})

	start := time.Now()
	err := e.run(ctx, sess, m, func(q history.Querier) error {
		return store.RecordApplied(ctx, q, history.RecordParams{
			Filename:   m.Filename,
			Checksum:   m.Checksum,
			DurationMs: int(time.Since(start).Milliseconds()),
		})
	})
	duration := time.Since(start)

	if err != nil {
		e.logger.Error().Err(err).Str("file", m.Filename).Dur("duration", duration).Msg("migration failed")
		e.fireProgress(ProgressEvent{
			Migration: m,
			Status:    StatusFailed,
			Duration:  duration,
			Error:     err,
		})

		return &ApplyError{Filename: m.Filename, Key: m.Key, Err: err}
	}

	e.logger.Info().Str("file", m.Filename).Dur("duration", duration).Msg("migration applied")
	e.fireProgress(ProgressEvent{
		Migration: m,
		Status:    StatusCompleted,
		Duration:  duration,
	})

	return nil
}

// executeMigration runs the SQL for a single migration. Normally the SQL and
// the history row share one transaction. Migrations containing concurrent
// index operations run statement by statement outside a transaction, and
// only the history row is transactional.
func (e *Executor) executeMigration(
	ctx context.Context,
	sess Session,
	m *migration.Migration,
	record func(q history.Querier) error,
) error {
	concurrent, err := containsConcurrentIndex(m.SQL)
	if err != nil {
		// The server has the final say on syntax; run it transactionally.
		e.logger.Debug().Err(err).Str("file", m.Filename).Msg("could not parse migration")
	}

	if concurrent {
		return e.executeOutsideTransaction(ctx, sess, m, record)
	}

	return ExecInTransaction(ctx, sess, func(tx pgx.Tx) error {
		if e.lockTimeout > 0 {
			if err := SetLockTimeout(ctx, tx, e.lockTimeout); err != nil {
				return err
			}
		}

		if e.statementTimeout > 0 {
			if err := SetStatementTimeout(ctx, tx, e.statementTimeout); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("executing SQL: %w", err)
		}

		return record(tx)
	})
}

func (e *Executor) executeOutsideTransaction(
	ctx context.Context,
	sess Session,
	m *migration.Migration,
	record func(q history.Querier) error,
) error {
	stmts, err := parser.Split(m.SQL)
	if err != nil {
		return err
	}

	e.logger.Warn().Str("file", m.Filename).Int("statements", len(stmts)).
		Msg("concurrent index operation: running outside a transaction")

	if err := setSessionTimeouts(ctx, sess, e.lockTimeout, e.statementTimeout); err != nil {
		return err
	}

	execErr := ExecWithoutTransaction(ctx, sess, stmts)

	if err := ResetTimeouts(ctx, sess); err != nil && execErr == nil {
		return err
	}

	if execErr != nil {
		return execErr
	}

	return ExecInTransaction(ctx, sess, func(tx pgx.Tx) error {
		return record(tx)
	})
}

// lockDatabase is the default lockFunc: a session-level advisory lock on a
// dedicated pooled connection.
func (e *Executor) lockDatabase(ctx context.Context) (lockReleaser, Session, error) {
	handle, err := database.AcquireLock(ctx, e.pool, database.LockKey(database.MigrationLockName), e.lockWait)
	if err != nil {
		return nil, nil, err
	}

	return handle, handle.Conn(), nil
}

func (e *Executor) fireProgress(event ProgressEvent) {
	if e.onProgress != nil {
		e.onProgress(event)
	}
}
