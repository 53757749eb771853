package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/lexilight/dbmigrate/internal/config"
	"github.com/lexilight/dbmigrate/internal/database"
	"github.com/lexilight/dbmigrate/internal/executor"
	"github.com/lexilight/dbmigrate/internal/logging"
	"github.com/lexilight/dbmigrate/internal/migration"
)

var applyCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "apply",
	Short: "Apply pending migrations",
	Long: `Apply every pending migration in ascending key order. Each file runs in
its own transaction together with its applied_migrations row, so a failed
file leaves no trace and everything before it stays applied.

Only one apply runs against a database at a time. A second concurrent apply
exits with code 3 immediately, or after --lock-wait.

Exit codes: 0 success, 1 migration failed, 2 discovery or connection
failure, 3 migration lock busy.`,
	Args: cobra.NoArgs,
	RunE: runApply,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	applyCmd.Flags().Bool("dry-run", false, "show what would be applied without executing")
	applyCmd.Flags().Duration("lock-wait", 0, "wait up to this long for another apply to finish (e.g., 30s)")
	applyCmd.Flags().Duration("lock-timeout", 0, "override per-transaction lock_timeout (e.g., 10s, 1m)")
	applyCmd.Flags().Duration("statement-timeout", 0, "override per-transaction statement_timeout (0 = none)")
	rootCmd.AddCommand(applyCmd)
}

type applyOpts struct {
	lockWait    time.Duration
	lockTimeout time.Duration
	stmtTimeout time.Duration
	dryRun      bool
}

func runApply(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := applyOptsFromFlags(cmd, cfg)

	files, err := loadMigrations(cfg.MigrationsDir)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	pool, err := connectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	return executeMigrations(ctx, cmd.OutOrStdout(), pool, files, opts)
}

func applyOptsFromFlags(cmd *cobra.Command, cfg *config.Config) applyOpts {
	opts := applyOpts{
		lockWait:    cfg.LockWait,
		lockTimeout: cfg.LockTimeout,
		stmtTimeout: cfg.StatementTimeout,
	}

	opts.dryRun, _ = cmd.Flags().GetBool("dry-run")

	if cmd.Flags().Changed("lock-wait") {
		opts.lockWait, _ = cmd.Flags().GetDuration("lock-wait")
	}

	if cmd.Flags().Changed("lock-timeout") {
		opts.lockTimeout, _ = cmd.Flags().GetDuration("lock-timeout")
	}

	if cmd.Flags().Changed("statement-timeout") {
		opts.stmtTimeout, _ = cmd.Flags().GetDuration("statement-timeout")
	}

	return opts
}

// loadMigrations discovers migration files. Discovery failures are returned
// unwrapped as *migration.DiscoveryError.
func loadMigrations(dir string) ([]migration.Migration, error) {
	files, err := migration.LoadFromDir(dir)
	if err != nil {
		return nil, err
	}

	return migration.Sort(files), nil
}

func connectDB(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	logger := logging.FromContext(ctx)
	logger.Debug().Str("database", config.RedactURL(cfg.DatabaseURL)).Msg("connecting")

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", config.RedactURL(cfg.DatabaseURL), err)
	}

	return pool, nil
}

func executeMigrations(
	ctx context.Context,
	out io.Writer,
	pool *pgxpool.Pool,
	files []migration.Migration,
	opts applyOpts,
) error {
	exec := executor.New(pool,
		executor.WithLockWait(opts.lockWait),
		executor.WithLockTimeout(opts.lockTimeout),
		executor.WithStatementTimeout(opts.stmtTimeout),
		executor.WithDryRun(opts.dryRun),
		executor.WithLogger(logging.FromContext(ctx)),
		executor.WithProgressCallback(progressPrinter(out)),
	)

	if opts.dryRun {
		fmt.Fprintln(out, "--- DRY RUN (no changes will be made) ---")
	}

	report, err := exec.Apply(ctx, files)
	printApplySummary(out, exec.RunID(), report, opts.dryRun, err)

	return err
}

// printApplySummary writes the closing lines of an apply run. The run id
// matches the run_id field on the run's log lines.
func printApplySummary(out io.Writer, runID string, report *executor.Report, dryRun bool, err error) {
	if err != nil {
		if report != nil && len(report.Applied) > 0 {
			fmt.Fprintf(out, "\n%d migration(s) applied before the failure (run %s).\n", len(report.Applied), runID)
		}

		return
	}

	pending := len(report.Result.Pending())

	switch {
	case dryRun:
		fmt.Fprintf(out, "\nDry run complete: %d migration(s) would be applied, %d already applied.\n",
			pending, len(report.Result.Applied()))
	case pending == 0:
		fmt.Fprintln(out, "No pending migrations.")
	default:
		fmt.Fprintf(out, "\nApply complete: %d applied (run %s).\n", len(report.Applied), runID)
	}
}
