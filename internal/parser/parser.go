package parser //nolint:revive // intentional: does not conflict with go/parser in internal package

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ParseResult holds the parsed AST and the SQL the statement locations refer to.
type ParseResult struct {
	Stmts []*pg_query.RawStmt
	SQL   string
}

// Parse parses a PostgreSQL SQL string with the server's own grammar.
// Returns an empty result (zero statements) for empty or whitespace-only input.
func Parse(sql string) (*ParseResult, error) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return &ParseResult{SQL: sql}, nil
	}

	tree, err := pg_query.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parsing SQL: %w", err)
	}

	return &ParseResult{
		Stmts: tree.Stmts,
		SQL:   trimmed,
	}, nil
}

// Split breaks a migration script into its top-level statements, keeping
// dollar-quoted bodies such as DO $$ ... $$ intact. Statements that must run
// outside a transaction block have to be sent one at a time, since a
// multi-statement simple query runs as one implicit transaction.
func Split(sql string) ([]string, error) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return nil, nil
	}

	stmts, err := pg_query.SplitWithParser(trimmed, true)
	if err != nil {
		return nil, fmt.Errorf("splitting SQL: %w", err)
	}

	return stmts, nil
}
