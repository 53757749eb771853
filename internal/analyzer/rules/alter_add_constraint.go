package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/lexilight/dbmigrate/internal/analyzer"
)

// AddConstraintRule detects ALTER TABLE ... ADD CONSTRAINT, which has no
// IF NOT EXISTS form. A DROP CONSTRAINT IF EXISTS of the same name earlier in
// the same ALTER TABLE counts as a guard.
type AddConstraintRule struct{}

// NewAddConstraintRule creates a new AddConstraintRule.
func NewAddConstraintRule() *AddConstraintRule { return &AddConstraintRule{} }

// ID returns the rule identifier.
func (r *AddConstraintRule) ID() string { return "add-constraint-unguarded" }

// Check examines a statement for unguarded ADD CONSTRAINT subcommands.
func (r *AddConstraintRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_AlterTableStmt)
	if !ok {
		return nil
	}

	alt := node.AlterTableStmt
	dropped := make(map[string]bool)

	var findings []analyzer.Finding

	for _, cmd := range alterTableCmds(alt) {
		switch cmd.Subtype {
		case pg_query.AlterTableType_AT_DropConstraint:
			if cmd.MissingOk {
				dropped[cmd.Name] = true
			}
		case pg_query.AlterTableType_AT_AddConstraint:
			name := constraintName(cmd)
			if name != "" && dropped[name] {
				continue
			}

			object := analyzer.TableName(alt.Relation)
			if name != "" {
				object += "." + name
			}

			findings = append(findings, analyzer.Finding{
				Rule:     r.ID(),
				Severity: analyzer.Medium,
				Object:   object,
				Message:  "ADD CONSTRAINT fails if the constraint already exists",
				Suggestion: "Precede it with DROP CONSTRAINT IF EXISTS <name> in the same ALTER TABLE, " +
					"or check pg_constraint in a DO block",
				StmtIndex: ctx.StmtIndex,
			})
		default:
		}
	}

	return findings
}

func constraintName(cmd *pg_query.AlterTableCmd) string {
	if cmd.Def == nil {
		return ""
	}

	if c, ok := cmd.Def.Node.(*pg_query.Node_Constraint); ok {
		return c.Constraint.Conname
	}

	return ""
}
