package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/lexilight/dbmigrate/internal/analyzer"
)

// DropGuardRule detects DROP statements, and ALTER TABLE ... DROP COLUMN /
// DROP CONSTRAINT, without IF EXISTS.
type DropGuardRule struct{}

// NewDropGuardRule creates a new DropGuardRule.
func NewDropGuardRule() *DropGuardRule { return &DropGuardRule{} }

// ID returns the rule identifier.
func (r *DropGuardRule) ID() string { return "drop-without-if-exists" }

// Check examines a statement for an unguarded DROP.
func (r *DropGuardRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	switch node := stmt.Stmt.Node.(type) {
	case *pg_query.Node_DropStmt:
		return r.checkDrop(node.DropStmt, ctx)
	case *pg_query.Node_AlterTableStmt:
		return r.checkAlterTable(node.AlterTableStmt, ctx)
	default:
		return nil
	}
}

func (r *DropGuardRule) checkDrop(drop *pg_query.DropStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	if drop == nil || drop.MissingOk {
		return nil
	}

	severity := analyzer.Medium

	switch drop.RemoveType {
	case pg_query.ObjectType_OBJECT_TABLE, pg_query.ObjectType_OBJECT_VIEW, pg_query.ObjectType_OBJECT_MATVIEW:
		severity = analyzer.High
	default:
	}

	kind := objectKind(drop.RemoveType)

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   severity,
		Object:     objectNames(drop.Objects),
		Message:    "DROP " + kind + " without IF EXISTS fails if the migration is run again",
		Suggestion: "Use DROP " + kind + " IF EXISTS",
		StmtIndex:  ctx.StmtIndex,
	}}
}

func (r *DropGuardRule) checkAlterTable(alt *pg_query.AlterTableStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	var findings []analyzer.Finding

	for _, cmd := range alterTableCmds(alt) {
		var what string

		switch cmd.Subtype {
		case pg_query.AlterTableType_AT_DropColumn:
			what = "COLUMN"
		case pg_query.AlterTableType_AT_DropConstraint:
			what = "CONSTRAINT"
		default:
			continue
		}

		if cmd.MissingOk {
			continue
		}

		findings = append(findings, analyzer.Finding{
			Rule:       r.ID(),
			Severity:   analyzer.Medium,
			Object:     analyzer.TableName(alt.Relation) + "." + cmd.Name,
			Message:    "DROP " + what + " without IF EXISTS fails if the migration is run again",
			Suggestion: "Use ALTER TABLE ... DROP " + what + " IF EXISTS",
			StmtIndex:  ctx.StmtIndex,
		})
	}

	return findings
}
