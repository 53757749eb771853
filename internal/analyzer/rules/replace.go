package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/lexilight/dbmigrate/internal/analyzer"
)

// ReplaceRule detects CREATE FUNCTION / PROCEDURE / VIEW / TRIGGER without
// OR REPLACE.
type ReplaceRule struct{}

// NewReplaceRule creates a new ReplaceRule.
func NewReplaceRule() *ReplaceRule { return &ReplaceRule{} }

// ID returns the rule identifier.
func (r *ReplaceRule) ID() string { return "create-without-or-replace" }

// Check examines a statement for CREATE without OR REPLACE.
func (r *ReplaceRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	var (
		kind     string
		object   string
		severity = analyzer.Medium
	)

	switch node := stmt.Stmt.Node.(type) {
	case *pg_query.Node_CreateFunctionStmt:
		if node.CreateFunctionStmt.Replace {
			return nil
		}

		kind = "FUNCTION"
		if node.CreateFunctionStmt.IsProcedure {
			kind = "PROCEDURE"
		}

		object = analyzer.QualifiedName(node.CreateFunctionStmt.Funcname)
	case *pg_query.Node_ViewStmt:
		if node.ViewStmt.Replace {
			return nil
		}

		kind, object = "VIEW", analyzer.TableName(node.ViewStmt.View)
	case *pg_query.Node_CreateTrigStmt:
		if node.CreateTrigStmt.Replace {
			return nil
		}

		// OR REPLACE TRIGGER needs PostgreSQL 14; DROP TRIGGER IF EXISTS works everywhere.
		kind, severity = "TRIGGER", analyzer.Low
		object = node.CreateTrigStmt.Trigname + " ON " + analyzer.TableName(node.CreateTrigStmt.Relation)
	default:
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   severity,
		Object:     object,
		Message:    "CREATE " + kind + " without OR REPLACE fails if the migration is run again",
		Suggestion: "Use CREATE OR REPLACE " + kind,
		StmtIndex:  ctx.StmtIndex,
	}}
}
