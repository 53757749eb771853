package rules

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/lexilight/dbmigrate/internal/analyzer"
)

// objectNames renders the object list of a DROP statement. Tables, views and
// schemas come as lists of strings, types as TypeName, functions as
// ObjectWithArgs.
func objectNames(objects []*pg_query.Node) string {
	names := make([]string, 0, len(objects))

	for _, obj := range objects {
		switch n := obj.Node.(type) {
		case *pg_query.Node_List:
			names = append(names, analyzer.QualifiedName(n.List.Items))
		case *pg_query.Node_String_:
			names = append(names, n.String_.Sval)
		case *pg_query.Node_TypeName:
			names = append(names, analyzer.QualifiedName(n.TypeName.Names))
		case *pg_query.Node_ObjectWithArgs:
			names = append(names, analyzer.QualifiedName(n.ObjectWithArgs.Objname))
		}
	}

	if len(names) == 0 {
		return "<unknown>"
	}

	return strings.Join(names, ", ")
}

// objectKind is the SQL keyword for an object type, for messages.
func objectKind(t pg_query.ObjectType) string {
	switch t {
	case pg_query.ObjectType_OBJECT_TABLE:
		return "TABLE"
	case pg_query.ObjectType_OBJECT_VIEW:
		return "VIEW"
	case pg_query.ObjectType_OBJECT_MATVIEW:
		return "MATERIALIZED VIEW"
	case pg_query.ObjectType_OBJECT_INDEX:
		return "INDEX"
	case pg_query.ObjectType_OBJECT_SEQUENCE:
		return "SEQUENCE"
	case pg_query.ObjectType_OBJECT_SCHEMA:
		return "SCHEMA"
	case pg_query.ObjectType_OBJECT_TYPE:
		return "TYPE"
	case pg_query.ObjectType_OBJECT_DOMAIN:
		return "DOMAIN"
	case pg_query.ObjectType_OBJECT_FUNCTION:
		return "FUNCTION"
	case pg_query.ObjectType_OBJECT_PROCEDURE:
		return "PROCEDURE"
	case pg_query.ObjectType_OBJECT_TRIGGER:
		return "TRIGGER"
	case pg_query.ObjectType_OBJECT_EXTENSION:
		return "EXTENSION"
	default:
		return "object"
	}
}

// alterTableCmds yields the subcommands of an ALTER TABLE statement.
func alterTableCmds(alt *pg_query.AlterTableStmt) []*pg_query.AlterTableCmd {
	cmds := make([]*pg_query.AlterTableCmd, 0, len(alt.Cmds))

	for _, n := range alt.Cmds {
		if c, ok := n.Node.(*pg_query.Node_AlterTableCmd); ok && c.AlterTableCmd != nil {
			cmds = append(cmds, c.AlterTableCmd)
		}
	}

	return cmds
}
