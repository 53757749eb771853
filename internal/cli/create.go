package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexilight/dbmigrate/internal/scaffold"
)

var createCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "create <name>",
	Short: "Create a new migration file",
	Long: `Create a new, empty migration file in the migrations directory. The
file is named {key}_{slug}.sql, where the key sorts after every existing
migration: a UTC timestamp (YYYYMMDDHHMMSS), or the next sequence number
when the directory already uses sequence keys. An existing file is never
overwritten.`,
	Example: `  dbmigrate create "add words table"
  dbmigrate create add_ipa_column --migrations-dir db/migrations`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCreate,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(createCmd)
}

// now is overridden in tests.
var now = time.Now //nolint:gochecknoglobals // test seam

func runCreate(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")

	path, err := scaffold.Create(AppConfig.MigrationsDir, name, now())
	if err != nil {
		return fmt.Errorf("creating migration: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created migration: %s\n", path)

	return nil
}
