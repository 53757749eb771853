package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lexilight/dbmigrate/internal/analyzer"
	"github.com/lexilight/dbmigrate/internal/analyzer/rules"
)

func TestAddColumnRule(t *testing.T) {
	t.Parallel()

	runRuleCases(t, rules.NewAddColumnRule(), []ruleCase{
		{name: "unguarded", sql: "ALTER TABLE words ADD COLUMN ipa TEXT;", wantCount: 1, wantSeverity: analyzer.High, wantObject: "words.ipa"},
		{name: "guarded", sql: "ALTER TABLE words ADD COLUMN IF NOT EXISTS ipa TEXT;"},
		{name: "two unguarded", sql: "ALTER TABLE words ADD COLUMN ipa TEXT, ADD COLUMN audio_url TEXT;", wantCount: 2, wantSeverity: analyzer.High},
		{name: "mixed", sql: "ALTER TABLE words ADD COLUMN IF NOT EXISTS ipa TEXT, ADD COLUMN audio_url TEXT;", wantCount: 1, wantSeverity: analyzer.High, wantObject: "words.audio_url"},
		{name: "other subcommand", sql: "ALTER TABLE words ALTER COLUMN ipa SET NOT NULL;"},
		{
			name: "guarded by DO block",
			sql: `DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'words' AND column_name = 'ipa') THEN
    ALTER TABLE words ADD COLUMN ipa TEXT;
  END IF;
END $$;`,
		},
	})
}

func TestAddColumnRule_ID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "add-column-without-if-not-exists", rules.NewAddColumnRule().ID())
}
