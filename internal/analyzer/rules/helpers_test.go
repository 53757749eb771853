package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexilight/dbmigrate/internal/analyzer"
	"github.com/lexilight/dbmigrate/internal/parser"
)

// ruleCase is one SQL input and the findings a rule should report for it.
type ruleCase struct {
	name         string
	sql          string
	wantCount    int
	wantSeverity analyzer.Severity
	wantObject   string
}

// runRule parses sql and runs rule over every statement.
func runRule(t *testing.T, rule analyzer.Rule, sql string) []analyzer.Finding {
	t.Helper()

	result, err := parser.Parse(sql)
	require.NoError(t, err)

	var findings []analyzer.Finding

	for i, stmt := range result.Stmts {
		ctx := &analyzer.RuleContext{StmtIndex: i, StmtCount: len(result.Stmts), SQL: result.SQL}
		findings = append(findings, rule.Check(stmt, ctx)...)
	}

	return findings
}

func runRuleCases(t *testing.T, rule analyzer.Rule, tests []ruleCase) {
	t.Helper()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			findings := runRule(t, rule, tt.sql)

			require.Len(t, findings, tt.wantCount)

			if tt.wantCount == 0 {
				return
			}

			assert.Equal(t, rule.ID(), findings[0].Rule)
			assert.Equal(t, tt.wantSeverity, findings[0].Severity)
			assert.NotEmpty(t, findings[0].Message)
			assert.NotEmpty(t, findings[0].Suggestion)

			if tt.wantObject != "" {
				assert.Equal(t, tt.wantObject, findings[0].Object)
			}
		})
	}
}
