package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/lexilight/dbmigrate/internal/analyzer"
)

// AddColumnRule detects ALTER TABLE ... ADD COLUMN without IF NOT EXISTS.
type AddColumnRule struct{}

// NewAddColumnRule creates a new AddColumnRule.
func NewAddColumnRule() *AddColumnRule { return &AddColumnRule{} }

// ID returns the rule identifier.
func (r *AddColumnRule) ID() string { return "add-column-without-if-not-exists" }

// Check examines a statement for unguarded ADD COLUMN subcommands.
func (r *AddColumnRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_AlterTableStmt)
	if !ok {
		return nil
	}

	alt := node.AlterTableStmt

	var findings []analyzer.Finding

	for _, cmd := range alterTableCmds(alt) {
		if cmd.Subtype != pg_query.AlterTableType_AT_AddColumn || cmd.MissingOk {
			continue
		}

		object := analyzer.TableName(alt.Relation)
		if col := columnName(cmd); col != "" {
			object += "." + col
		}

		findings = append(findings, analyzer.Finding{
			Rule:       r.ID(),
			Severity:   analyzer.High,
			Object:     object,
			Message:    "ADD COLUMN without IF NOT EXISTS fails if the migration is run again",
			Suggestion: "Use ALTER TABLE ... ADD COLUMN IF NOT EXISTS, or check information_schema.columns in a DO block",
			StmtIndex:  ctx.StmtIndex,
		})
	}

	return findings
}

func columnName(cmd *pg_query.AlterTableCmd) string {
	if cmd.Def == nil {
		return cmd.Name
	}

	if def, ok := cmd.Def.Node.(*pg_query.Node_ColumnDef); ok {
		return def.ColumnDef.Colname
	}

	return cmd.Name
}
