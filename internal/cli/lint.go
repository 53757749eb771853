package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lexilight/dbmigrate/internal/analyzer"
	"github.com/lexilight/dbmigrate/internal/analyzer/rules"
)

var lintCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "lint [migration-dir]",
	Short: "Check migrations for statements that are not safe to re-run",
	Long: `Parse every migration with the PostgreSQL parser and report DDL that
would fail if the file ran a second time: CREATE without IF NOT EXISTS,
DROP without IF EXISTS, CREATE FUNCTION or VIEW without OR REPLACE, unguarded
CREATE TYPE, and statements that cannot run inside the migration
transaction. lint never connects to the database.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLint,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	lintCmd.Flags().Bool("fail-on-unguarded", false, "exit with code 1 when findings at or above --min-severity exist")
	lintCmd.Flags().String("min-severity", "low", "lowest severity reported (low, medium, high)")
	rootCmd.AddCommand(lintCmd)
}

// errUnguardedStatements is returned when --fail-on-unguarded is set and findings exist.
var errUnguardedStatements = errors.New("migrations contain statements that are not safe to re-run")

func runLint(cmd *cobra.Command, args []string) error {
	dir := AppConfig.MigrationsDir
	if len(args) > 0 {
		dir = args[0]
	}

	minLabel, _ := cmd.Flags().GetString("min-severity")

	minSeverity, err := analyzer.ParseSeverity(minLabel)
	if err != nil {
		return err
	}

	files, err := loadMigrations(dir)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No migration files found.")
		return nil
	}

	a := analyzer.New(analyzer.WithRegistry(rules.NewDefaultRegistry()))

	failing := printLintResults(cmd.OutOrStdout(), a.AnalyzeAll(files), minSeverity)

	failOnUnguarded, _ := cmd.Flags().GetBool("fail-on-unguarded")
	if failOnUnguarded && failing {
		return errUnguardedStatements
	}

	return nil
}

// printLintResults writes findings at or above minSeverity and reports whether any
// file reached it.
func printLintResults(out io.Writer, results []analyzer.AnalysisResult, minSeverity analyzer.Severity) bool {
	total := 0
	files := 0
	failing := false

	for i := range results {
		r := &results[i]

		if !r.AtLeast(minSeverity) {
			continue
		}

		failing = true
		files++

		fmt.Fprintf(out, "\n=== %s ===\n", r.Migration.Filename)

		if r.ParseError != nil {
			fmt.Fprintf(out, "  [ERROR] %v\n", r.ParseError)

			total++

			continue
		}

		for _, f := range r.Findings {
			if f.Severity < minSeverity {
				continue
			}

			total++

			fmt.Fprintf(out, "  [%s] %s\n", f.Severity, f.Message)

			if f.Object != "" {
				fmt.Fprintf(out, "    Object: %s\n", f.Object)
			}

			fmt.Fprintf(out, "    Rule:   %s\n", f.Rule)

			if f.Statement != "" {
				fmt.Fprintf(out, "    SQL:    %s\n", f.Statement)
			}

			fmt.Fprintf(out, "    Fix:    %s\n\n", f.Suggestion)
		}
	}

	if total == 0 {
		fmt.Fprintf(out, "All %d migration(s) are safe to re-run.\n", len(results))
	} else {
		fmt.Fprintf(out, "Found %d finding(s) across %d migration(s).\n", total, files)
	}

	return failing
}
