package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/lexilight/dbmigrate/internal/analyzer"
)

// RenameRule detects RENAME TABLE and RENAME COLUMN. Neither has a guarded
// form: once it has run, the old name is gone and a second run fails.
type RenameRule struct{}

// NewRenameRule creates a new RenameRule.
func NewRenameRule() *RenameRule { return &RenameRule{} }

// ID returns the rule identifier.
func (r *RenameRule) ID() string { return "rename-not-rerunnable" }

// Check examines a statement for RENAME TABLE or RENAME COLUMN.
func (r *RenameRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_RenameStmt)
	if !ok || node.RenameStmt == nil {
		return nil
	}

	rename := node.RenameStmt

	switch rename.RenameType {
	case pg_query.ObjectType_OBJECT_TABLE:
		return []analyzer.Finding{{
			Rule:       r.ID(),
			Severity:   analyzer.Low,
			Object:     analyzer.TableName(rename.Relation),
			Message:    "RENAME TABLE fails on a second run because the old name no longer exists",
			Suggestion: "Check to_regclass('<old>') in a DO block before renaming",
			StmtIndex:  ctx.StmtIndex,
		}}
	case pg_query.ObjectType_OBJECT_COLUMN:
		return []analyzer.Finding{{
			Rule:       r.ID(),
			Severity:   analyzer.Low,
			Object:     analyzer.TableName(rename.Relation) + "." + rename.Subname,
			Message:    "RENAME COLUMN fails on a second run because the old column no longer exists",
			Suggestion: "Check information_schema.columns in a DO block before renaming",
			StmtIndex:  ctx.StmtIndex,
		}}
	default:
		return nil // RENAME INDEX, etc.
	}
}
