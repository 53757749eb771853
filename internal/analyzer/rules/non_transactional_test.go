package rules_test

import (
	"testing"

	"github.com/lexilight/dbmigrate/internal/analyzer"
	"github.com/lexilight/dbmigrate/internal/analyzer/rules"
)

func TestNonTransactionalRule(t *testing.T) {
	t.Parallel()

	runRuleCases(t, rules.NewNonTransactionalRule(), []ruleCase{
		{name: "vacuum", sql: "VACUUM words;", wantCount: 1, wantSeverity: analyzer.High, wantObject: "words"},
		{name: "vacuum full all", sql: "VACUUM FULL;", wantCount: 1, wantSeverity: analyzer.High, wantObject: "<all tables>"},
		{name: "analyze", sql: "ANALYZE words;"},
		{name: "create database", sql: "CREATE DATABASE words_test;", wantCount: 1, wantSeverity: analyzer.High, wantObject: "words_test"},
		{name: "alter system", sql: "ALTER SYSTEM SET work_mem = '64MB';", wantCount: 1, wantSeverity: analyzer.High},
		{name: "concurrent index alone", sql: "CREATE INDEX CONCURRENTLY IF NOT EXISTS idx ON words (word);"},
		{
			name: "concurrent index mixed",
			sql: `ALTER TABLE words ADD COLUMN IF NOT EXISTS lemma TEXT;
CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_words_lemma ON words (lemma);`,
			wantCount:    1,
			wantSeverity: analyzer.Medium,
			wantObject:   "words",
		},
		{
			name:         "concurrent drop mixed",
			sql:          "DROP INDEX CONCURRENTLY IF EXISTS idx_a; SELECT 1;",
			wantCount:    1,
			wantSeverity: analyzer.Medium,
			wantObject:   "idx_a",
		},
	})
}
