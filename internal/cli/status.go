package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/lexilight/dbmigrate/internal/history"
	"github.com/lexilight/dbmigrate/internal/logging"
	"github.com/lexilight/dbmigrate/internal/migration"
	"github.com/lexilight/dbmigrate/internal/reconcile"
	"github.com/lexilight/dbmigrate/internal/report"
)

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "status",
	Short: "Show migration status",
	Long: `Display every migration file with its state (applied or pending),
followed by any drift warnings between the files and the applied_migrations
table. status never writes to the database; a database without the table is
reported as having nothing applied.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	statusCmd.Flags().String("format", "", "output format (text, json)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	format := cfg.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}

	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

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

	res, err := reconcileStatus(ctx, pool, files)
	if err != nil {
		return err
	}

	if format == "json" {
		return report.JSON(cmd.OutOrStdout(), res)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")

	return report.Text(cmd.OutOrStdout(), res, report.TextOptions{Verbose: verbose})
}

// reconcileStatus reads history without bootstrapping it.
func reconcileStatus(ctx context.Context, pool *pgxpool.Pool, files []migration.Migration) (*reconcile.Result, error) {
	store := history.New(pool)

	exists, err := store.Exists(ctx)
	if err != nil {
		return nil, err
	}

	var applied []history.AppliedMigration

	if exists {
		applied, err = store.ListApplied(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		logger := logging.FromContext(ctx)
		logger.Debug().Msg("applied_migrations does not exist yet; treating history as empty")
	}

	return reconcile.Reconcile(files, applied), nil
}
