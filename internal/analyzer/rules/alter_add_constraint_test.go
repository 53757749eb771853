package rules_test

import (
	"testing"

	"github.com/lexilight/dbmigrate/internal/analyzer"
	"github.com/lexilight/dbmigrate/internal/analyzer/rules"
)

func TestAddConstraintRule(t *testing.T) {
	t.Parallel()

	runRuleCases(t, rules.NewAddConstraintRule(), []ruleCase{
		{
			name:         "unguarded check",
			sql:          "ALTER TABLE words ADD CONSTRAINT word_not_blank CHECK (word <> '');",
			wantCount:    1,
			wantSeverity: analyzer.Medium,
			wantObject:   "words.word_not_blank",
		},
		{
			name: "dropped first in the same statement",
			sql: "ALTER TABLE words DROP CONSTRAINT IF EXISTS word_not_blank, " +
				"ADD CONSTRAINT word_not_blank CHECK (word <> '');",
		},
		{
			name: "dropped under another name",
			sql: "ALTER TABLE words DROP CONSTRAINT IF EXISTS other, " +
				"ADD CONSTRAINT word_not_blank CHECK (word <> '');",
			wantCount:    1,
			wantSeverity: analyzer.Medium,
		},
		{
			name:         "foreign key",
			sql:          "ALTER TABLE words ADD CONSTRAINT words_list_fk FOREIGN KEY (list_id) REFERENCES word_lists (id);",
			wantCount:    1,
			wantSeverity: analyzer.Medium,
		},
		{name: "add column", sql: "ALTER TABLE words ADD COLUMN IF NOT EXISTS ipa TEXT;"},
	})
}
