// Package analyzer checks migrations against the authoring contract that
// every statement is safe to run twice. The runner never enforces this; the
// lint command reports it.
package analyzer

import (
	"fmt"

	"github.com/lexilight/dbmigrate/internal/migration"
	"github.com/lexilight/dbmigrate/internal/parser"
)

const statementDisplayLen = 120

// Option configures the Analyzer.
type Option func(*Analyzer)

// Analyzer runs registered rules against parsed migrations.
type Analyzer struct {
	registry *Registry
	parseFn  func(string) (*parser.ParseResult, error)
}

// New creates a new Analyzer with the given options.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		registry: NewRegistry(),
		parseFn:  parser.Parse,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// WithRegistry sets a custom rule registry.
func WithRegistry(r *Registry) Option {
	return func(a *Analyzer) { a.registry = r }
}

// WithParser overrides the SQL parser function (useful for testing).
func WithParser(fn func(string) (*parser.ParseResult, error)) Option {
	return func(a *Analyzer) { a.parseFn = fn }
}

// Analyze parses a single migration and runs every rule on each statement.
// A parse failure is recorded on the result rather than returned.
func (a *Analyzer) Analyze(m *migration.Migration) *AnalysisResult {
	res := &AnalysisResult{Migration: m, MaxSeverity: Safe}

	parsed, err := a.parseFn(m.SQL)
	if err != nil {
		res.ParseError = fmt.Errorf("parsing %s: %w", m.Filename, err)
		return res
	}

	for i, stmt := range parsed.Stmts {
		ctx := &RuleContext{
			Migration: m,
			StmtIndex: i,
			StmtCount: len(parsed.Stmts),
			SQL:       parsed.SQL,
		}

		for _, rule := range a.registry.Rules() {
			for _, f := range rule.Check(stmt, ctx) {
				if f.Statement == "" {
					f.Statement = TruncateSQL(ExtractStmtSQL(parsed.Stmts, i, parsed.SQL), statementDisplayLen)
				}

				res.MaxSeverity = max(res.MaxSeverity, f.Severity)
				res.Findings = append(res.Findings, f)
			}
		}
	}

	return res
}

// AnalyzeAll analyzes migrations in the order given.
func (a *Analyzer) AnalyzeAll(migrations []migration.Migration) []AnalysisResult {
	results := make([]AnalysisResult, 0, len(migrations))

	for i := range migrations {
		results = append(results, *a.Analyze(&migrations[i]))
	}

	return results
}
