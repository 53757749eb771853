package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/lexilight/dbmigrate/internal/analyzer"
)

// CreateIndexRule detects CREATE INDEX without IF NOT EXISTS.
type CreateIndexRule struct{}

// NewCreateIndexRule creates a new CreateIndexRule.
func NewCreateIndexRule() *CreateIndexRule { return &CreateIndexRule{} }

// ID returns the rule identifier.
func (r *CreateIndexRule) ID() string { return "create-index-without-if-not-exists" }

// Check examines a statement for an unguarded CREATE INDEX.
func (r *CreateIndexRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_IndexStmt)
	if !ok {
		return nil
	}

	idx := node.IndexStmt
	if idx.IfNotExists {
		return nil
	}

	f := analyzer.Finding{
		Rule:       r.ID(),
		Severity:   analyzer.Medium,
		Object:     analyzer.TableName(idx.Relation),
		Message:    "CREATE INDEX without IF NOT EXISTS fails if the migration is run again",
		Suggestion: "Use CREATE INDEX IF NOT EXISTS <name> ON ...",
		StmtIndex:  ctx.StmtIndex,
	}

	if idx.Idxname == "" {
		// IF NOT EXISTS requires an explicit name; the generated one differs per run.
		f.Message = "unnamed CREATE INDEX creates a new duplicate index every time it runs"
		f.Suggestion = "Name the index and use CREATE INDEX IF NOT EXISTS <name> ON ..."
	}

	if idx.Concurrent {
		// Runs outside a transaction: a failed build leaves an INVALID index
		// behind that blocks the retry.
		f.Severity = analyzer.High
		f.Suggestion += "; drop an INVALID leftover with DROP INDEX CONCURRENTLY IF EXISTS before retrying"
	}

	return []analyzer.Finding{f}
}
