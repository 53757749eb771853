package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/lexilight/dbmigrate/internal/analyzer"
)

// NonTransactionalRule detects statements that cannot run inside the
// migration's transaction (VACUUM, CREATE/DROP DATABASE, ALTER SYSTEM), and
// files that mix a concurrent index operation with other statements. The
// latter run statement by statement, so a failure part-way leaves the
// earlier statements applied.
type NonTransactionalRule struct{}

// NewNonTransactionalRule creates a new NonTransactionalRule.
func NewNonTransactionalRule() *NonTransactionalRule { return &NonTransactionalRule{} }

// ID returns the rule identifier.
func (r *NonTransactionalRule) ID() string { return "non-transactional-statement" }

// Check examines a statement for transaction-block restrictions.
func (r *NonTransactionalRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	var (
		object string
		what   string
	)

	switch node := stmt.Stmt.Node.(type) {
	case *pg_query.Node_VacuumStmt:
		if !node.VacuumStmt.IsVacuumcmd {
			return nil // ANALYZE is fine in a transaction
		}

		what, object = "VACUUM", vacuumTargets(node.VacuumStmt)
	case *pg_query.Node_CreatedbStmt:
		what, object = "CREATE DATABASE", node.CreatedbStmt.Dbname
	case *pg_query.Node_DropdbStmt:
		what, object = "DROP DATABASE", node.DropdbStmt.Dbname
	case *pg_query.Node_AlterSystemStmt:
		what, object = "ALTER SYSTEM", "<server>"
	case *pg_query.Node_IndexStmt:
		if !node.IndexStmt.Concurrent || ctx.StmtCount < 2 { //nolint:mnd // alone in its file
			return nil
		}

		return []analyzer.Finding{r.mixedConcurrent(analyzer.TableName(node.IndexStmt.Relation), ctx)}
	case *pg_query.Node_DropStmt:
		if !node.DropStmt.Concurrent || ctx.StmtCount < 2 { //nolint:mnd // alone in its file
			return nil
		}

		return []analyzer.Finding{r.mixedConcurrent(objectNames(node.DropStmt.Objects), ctx)}
	default:
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.High,
		Object:     object,
		Message:    what + " cannot run inside a transaction block; apply will fail",
		Suggestion: "Run it outside the migration runner",
		StmtIndex:  ctx.StmtIndex,
	}}
}

func (r *NonTransactionalRule) mixedConcurrent(object string, ctx *analyzer.RuleContext) analyzer.Finding {
	return analyzer.Finding{
		Rule:       r.ID(),
		Severity:   analyzer.Medium,
		Object:     object,
		Message:    "concurrent index operation makes the whole file run without a transaction",
		Suggestion: "Move the CONCURRENTLY statement into a migration file of its own",
		StmtIndex:  ctx.StmtIndex,
	}
}

func vacuumTargets(v *pg_query.VacuumStmt) string {
	for _, rel := range v.Rels {
		vr, ok := rel.Node.(*pg_query.Node_VacuumRelation)
		if !ok {
			continue
		}

		if vr.VacuumRelation.Relation != nil {
			return analyzer.TableName(vr.VacuumRelation.Relation)
		}
	}

	return "<all tables>"
}
