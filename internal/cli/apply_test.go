package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexilight/dbmigrate/internal/config"
	"github.com/lexilight/dbmigrate/internal/database"
	"github.com/lexilight/dbmigrate/internal/executor"
	"github.com/lexilight/dbmigrate/internal/history"
	"github.com/lexilight/dbmigrate/internal/migration"
	"github.com/lexilight/dbmigrate/internal/reconcile"
)

func newApplyCmd(buf *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{RunE: runApply}
	cmd.Flags().Bool("dry-run", false, "")
	cmd.Flags().Duration("lock-wait", 0, "")
	cmd.Flags().Duration("lock-timeout", 0, "")
	cmd.Flags().Duration("statement-timeout", 0, "")
	cmd.SetOut(buf)

	return cmd
}

func TestLoadMigrations_validDir_returnsSorted(t *testing.T) {
	t.Parallel()

	files, err := loadMigrations("../../testdata/migrations")

	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "001_init.sql", files[0].Filename)
	assert.Equal(t, "003_word_lists.sql", files[2].Filename)
}

func TestLoadMigrations_invalidDir_isDiscoveryError(t *testing.T) {
	t.Parallel()

	_, err := loadMigrations("/nonexistent/path")

	var discoveryErr *migration.DiscoveryError
	require.ErrorAs(t, err, &discoveryErr)
	assert.ErrorIs(t, err, migration.ErrDirNotFound)
	assert.Equal(t, ExitEnvironment, ExitCode(err))
}

func TestApplyOptsFromFlags(t *testing.T) {
	t.Parallel()

	cfg := config.New()
	cfg.LockWait = 2 * time.Second
	cfg.StatementTimeout = time.Minute

	cmd := newApplyCmd(new(bytes.Buffer))
	require.NoError(t, cmd.Flags().Set("dry-run", "true"))
	require.NoError(t, cmd.Flags().Set("lock-timeout", "9s"))

	opts := applyOptsFromFlags(cmd, cfg)

	assert.True(t, opts.dryRun)
	assert.Equal(t, 2*time.Second, opts.lockWait)
	assert.Equal(t, 9*time.Second, opts.lockTimeout)
	assert.Equal(t, time.Minute, opts.stmtTimeout)
}

func TestProgressPrinter(t *testing.T) {
	t.Parallel()

	m := &migration.Migration{Filename: "002_add_col.sql"}

	tests := []struct {
		name  string
		event executor.ProgressEvent
		want  string
	}{
		{"starting", executor.ProgressEvent{Migration: m, Status: executor.StatusStarting}, "  Applying 002_add_col.sql ... "},
		{"completed", executor.ProgressEvent{Migration: m, Status: executor.StatusCompleted, Duration: 1500 * time.Microsecond}, "done (1ms)\n"},
		{"skipped", executor.ProgressEvent{Migration: m, Status: executor.StatusSkipped}, "  Would apply 002_add_col.sql\n"},
		{
			name:  "failed",
			event: executor.ProgressEvent{Migration: m, Status: executor.StatusFailed, Error: errors.New(`column "ipa" already exists`)},
			want:  "FAILED\n    002_add_col.sql: column \"ipa\" already exists\n",
		},
		{
			name: "drift",
			event: executor.ProgressEvent{Status: executor.StatusDrift, Anomaly: &reconcile.Anomaly{
				Kind: reconcile.MissingFile, Filename: "003_gone.sql", Message: "applied but no longer on disk",
			}},
			want: "Warning: [missing-file] 003_gone.sql: applied but no longer on disk\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf := new(bytes.Buffer)
			progressPrinter(buf)(tt.event)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrintApplySummary(t *testing.T) {
	t.Parallel()

	files, err := loadMigrations("../../testdata/migrations")
	require.NoError(t, err)

	fresh := reconcile.Reconcile(files, nil)
	current := reconcile.Reconcile(files, []history.AppliedMigration{
		{ID: 1, Filename: files[0].Filename, Checksum: files[0].Checksum},
		{ID: 2, Filename: files[1].Filename, Checksum: files[1].Checksum},
		{ID: 3, Filename: files[2].Filename, Checksum: files[2].Checksum},
	})

	const runID = "3f0c9a52-6a7e-4c1e-9d0b-2f4f1b8e7a11"

	tests := []struct {
		name   string
		report *executor.Report
		dryRun bool
		err    error
		want   string
	}{
		{
			name:   "applied",
			report: &executor.Report{RunID: runID, Result: fresh, Applied: []string{"001_init.sql", "002_add_col.sql", "003_word_lists.sql"}},
			want:   "\nApply complete: 3 applied (run " + runID + ").\n",
		},
		{
			name:   "nothing pending",
			report: &executor.Report{RunID: runID, Result: current},
			want:   "No pending migrations.\n",
		},
		{
			name:   "dry run",
			report: &executor.Report{RunID: runID, Result: fresh},
			dryRun: true,
			want:   "\nDry run complete: 3 migration(s) would be applied, 0 already applied.\n",
		},
		{
			name:   "failed after one",
			report: &executor.Report{RunID: runID, Result: fresh, Applied: []string{"001_init.sql"}},
			err:    &executor.ApplyError{Filename: "002_add_col.sql", Err: errors.New("boom")},
			want:   "\n1 migration(s) applied before the failure (run " + runID + ").\n",
		},
		{
			name: "failed before any report",
			err:  errors.New("acquiring migration lock: timeout"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf := new(bytes.Buffer)
			printApplySummary(buf, runID, tt.report, tt.dryRun, tt.err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

// Tests below write to the global AppConfig and must not be parallel.

func TestRunApply_noDatabaseURL_returnsError(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	old := AppConfig
	t.Cleanup(func() { AppConfig = old })

	AppConfig = &config.Config{MigrationsDir: "../../testdata/migrations"}

	err := runApply(newApplyCmd(new(bytes.Buffer)), nil)

	require.ErrorIs(t, err, config.ErrMissingDatabaseURL)
	assert.Equal(t, ExitEnvironment, ExitCode(err))
}

func TestRunApply_missingDir_failsBeforeConnecting(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	old := AppConfig
	t.Cleanup(func() { AppConfig = old })

	AppConfig = &config.Config{
		DatabaseURL:   "postgres://nobody@127.0.0.1:1/none",
		MigrationsDir: "/nonexistent/migrations",
	}

	err := runApply(newApplyCmd(new(bytes.Buffer)), nil)

	require.ErrorIs(t, err, migration.ErrDirNotFound)
	assert.Equal(t, ExitEnvironment, ExitCode(err))
}

func TestRunApply_badURL_isEnvironmentError(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	old := AppConfig
	t.Cleanup(func() { AppConfig = old })

	AppConfig = &config.Config{
		DatabaseURL:   "postgres://user@host:notaport/db",
		MigrationsDir: "../../testdata/migrations",
	}

	err := runApply(newApplyCmd(new(bytes.Buffer)), nil)

	require.ErrorIs(t, err, database.ErrInvalidDatabaseURL)
	assert.Equal(t, ExitEnvironment, ExitCode(err))
}
