package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexilight/dbmigrate/internal/config"
	"github.com/lexilight/dbmigrate/internal/logging"
)

const version = "0.3.0"

// AppConfig holds the loaded configuration, set during PersistentPreRunE.
var AppConfig *config.Config //nolint:gochecknoglobals // standard Cobra pattern for shared config

// rootCmd is the base command for the dbmigrate CLI.
var rootCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:     "dbmigrate",
	Version: version,
	Short:   "Forward-only PostgreSQL migration runner",
	Long: `dbmigrate applies plain .sql migration files to PostgreSQL in key
order, at most once each, and records every applied file in the
applied_migrations table in the same transaction as its effect.

Migrations are forward-only and must be written to be safe to run twice
(CREATE ... IF NOT EXISTS, guarded DO blocks). "dbmigrate lint" checks this.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}

		return setupLogger(cmd, AppConfig)
	},
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	flags := rootCmd.PersistentFlags()
	flags.String("config", config.DefaultConfigFile, "path to configuration file")
	flags.String("db", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flags.String("database-url", "", "alias for --db")
	flags.String("migrations-dir", "", "path to migration files")
	flags.String("log-level", "", "diagnostic log level (trace, debug, info, warn, error)")
	flags.Bool("verbose", false, "verbose output and debug logging")

	_ = flags.MarkHidden("database-url")
}

// Execute runs the root command and exits with the code for the returned
// error. Called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(ExitCode(err))
	}
}

// loadConfig loads configuration with precedence: flag > env > file.
func loadConfig(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	allowMissing := !cmd.Flags().Changed("config")

	cfg, err := config.Load(configPath, allowMissing)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	config.MergeEnv(cfg)
	mergeFlags(cmd, cfg)

	AppConfig = cfg

	return nil
}

// mergeFlags overrides config with explicitly-set CLI flags. --db wins over
// its --database-url alias.
func mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	for _, name := range []string{"database-url", "db"} {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			cfg.DatabaseURL = f.Value.String()
		}
	}

	if cmd.Flags().Changed("migrations-dir") {
		cfg.MigrationsDir, _ = cmd.Flags().GetString("migrations-dir")
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose && !cmd.Flags().Changed("log-level") {
		cfg.LogLevel = "debug"
	}
}

// setupLogger builds the diagnostic logger and stores it in the command context.
func setupLogger(cmd *cobra.Command, cfg *config.Config) error {
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Out: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.SetContext(logging.WithContext(ctx, logger))

	return nil
}

// commandContext returns the command's context, never nil.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
