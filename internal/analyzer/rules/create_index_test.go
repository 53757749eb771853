package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexilight/dbmigrate/internal/analyzer"
	"github.com/lexilight/dbmigrate/internal/analyzer/rules"
)

func TestCreateIndexRule(t *testing.T) {
	t.Parallel()

	runRuleCases(t, rules.NewCreateIndexRule(), []ruleCase{
		{name: "unguarded", sql: "CREATE INDEX idx_words_word ON words (word);", wantCount: 1, wantSeverity: analyzer.Medium, wantObject: "words"},
		{name: "guarded", sql: "CREATE INDEX IF NOT EXISTS idx_words_word ON words (word);"},
		{name: "unique unguarded", sql: "CREATE UNIQUE INDEX idx_words_word ON words (word);", wantCount: 1, wantSeverity: analyzer.Medium},
		{name: "concurrent unguarded is high", sql: "CREATE INDEX CONCURRENTLY idx_words_word ON words (word);", wantCount: 1, wantSeverity: analyzer.High},
		{name: "concurrent guarded", sql: "CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_words_word ON words (word);"},
		{name: "not an index", sql: "CREATE TABLE words (id INT);"},
	})
}

func TestCreateIndexRule_unnamedIndex(t *testing.T) {
	t.Parallel()

	findings := runRule(t, rules.NewCreateIndexRule(), "CREATE INDEX ON words (word);")

	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "duplicate index")
	assert.Contains(t, findings[0].Suggestion, "Name the index")
}
