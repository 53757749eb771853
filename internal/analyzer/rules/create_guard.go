package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/lexilight/dbmigrate/internal/analyzer"
)

// CreateGuardRule detects CREATE TABLE / SCHEMA / SEQUENCE / EXTENSION and
// CREATE TABLE AS without IF NOT EXISTS. Indexes have their own rule.
type CreateGuardRule struct{}

// NewCreateGuardRule creates a new CreateGuardRule.
func NewCreateGuardRule() *CreateGuardRule { return &CreateGuardRule{} }

// ID returns the rule identifier.
func (r *CreateGuardRule) ID() string { return "create-without-if-not-exists" }

// Check examines a statement for an unguarded CREATE.
func (r *CreateGuardRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	var (
		kind     string
		object   string
		severity analyzer.Severity
	)

	switch node := stmt.Stmt.Node.(type) {
	case *pg_query.Node_CreateStmt:
		if node.CreateStmt.IfNotExists {
			return nil
		}

		kind, object, severity = "TABLE", analyzer.TableName(node.CreateStmt.Relation), analyzer.High
	case *pg_query.Node_CreateTableAsStmt:
		if node.CreateTableAsStmt.IfNotExists {
			return nil
		}

		kind, severity = objectKind(node.CreateTableAsStmt.Objtype), analyzer.High
		object = "<unknown>"

		if into := node.CreateTableAsStmt.Into; into != nil {
			object = analyzer.TableName(into.Rel)
		}
	case *pg_query.Node_CreateSchemaStmt:
		if node.CreateSchemaStmt.IfNotExists {
			return nil
		}

		kind, object, severity = "SCHEMA", node.CreateSchemaStmt.Schemaname, analyzer.Medium
	case *pg_query.Node_CreateSeqStmt:
		if node.CreateSeqStmt.IfNotExists {
			return nil
		}

		kind, object, severity = "SEQUENCE", analyzer.TableName(node.CreateSeqStmt.Sequence), analyzer.Medium
	case *pg_query.Node_CreateExtensionStmt:
		if node.CreateExtensionStmt.IfNotExists {
			return nil
		}

		kind, object, severity = "EXTENSION", node.CreateExtensionStmt.Extname, analyzer.Medium
	default:
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   severity,
		Object:     object,
		Message:    "CREATE " + kind + " without IF NOT EXISTS fails if the migration is run again",
		Suggestion: "Use CREATE " + kind + " IF NOT EXISTS",
		StmtIndex:  ctx.StmtIndex,
	}}
}
