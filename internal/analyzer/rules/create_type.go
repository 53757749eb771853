package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/lexilight/dbmigrate/internal/analyzer"
)

const typeGuardSuggestion = "Wrap it in DO $$ BEGIN ... EXCEPTION WHEN duplicate_object THEN NULL; END $$;"

// CreateTypeRule detects CREATE TYPE / DOMAIN at the top level of a file.
// PostgreSQL has no IF NOT EXISTS for types, so the only guard is a DO
// block, and statements inside a DO body never reach this rule. It also
// flags ALTER TYPE ... ADD VALUE without IF NOT EXISTS.
type CreateTypeRule struct{}

// NewCreateTypeRule creates a new CreateTypeRule.
func NewCreateTypeRule() *CreateTypeRule { return &CreateTypeRule{} }

// ID returns the rule identifier.
func (r *CreateTypeRule) ID() string { return "create-type-unguarded" }

// Check examines a statement for an unguarded type definition.
func (r *CreateTypeRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	var (
		object     string
		message    = "CREATE TYPE outside a DO block fails if the migration is run again"
		suggestion = typeGuardSuggestion
	)

	switch node := stmt.Stmt.Node.(type) {
	case *pg_query.Node_CreateEnumStmt:
		object = analyzer.QualifiedName(node.CreateEnumStmt.TypeName)
	case *pg_query.Node_CompositeTypeStmt:
		object = analyzer.TableName(node.CompositeTypeStmt.Typevar)
	case *pg_query.Node_CreateRangeStmt:
		object = analyzer.QualifiedName(node.CreateRangeStmt.TypeName)
	case *pg_query.Node_CreateDomainStmt:
		object = analyzer.QualifiedName(node.CreateDomainStmt.Domainname)
		message = "CREATE DOMAIN outside a DO block fails if the migration is run again"
	case *pg_query.Node_AlterEnumStmt:
		alter := node.AlterEnumStmt
		if alter.NewVal == "" || alter.OldVal != "" || alter.SkipIfNewValExists {
			return nil // RENAME VALUE, or already guarded
		}

		object = analyzer.QualifiedName(alter.TypeName) + "." + alter.NewVal
		message = "ALTER TYPE ... ADD VALUE without IF NOT EXISTS fails if the migration is run again"
		suggestion = "Use ALTER TYPE ... ADD VALUE IF NOT EXISTS"
	default:
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.Medium,
		Object:     object,
		Message:    message,
		Suggestion: suggestion,
		StmtIndex:  ctx.StmtIndex,
	}}
}
