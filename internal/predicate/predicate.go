// Package predicate validates the predicate strings passed to store backends
// before they are interpolated into SQL. Predicates are parsed with the real
// PostgreSQL parser by wrapping them in a SELECT, which rejects syntax errors,
// stacked statements, and set operations in one pass.
package predicate

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Validate checks that pred is a single boolean comparison expression safe to
// embed in a WHERE clause. It does not evaluate the predicate or verify that
// referenced columns exist.
func Validate(pred string) error {
	trimmed := strings.TrimSpace(pred)
	if trimmed == "" {
		return ErrEmptyPredicate
	}

	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("%w: %q", ErrMultipleStatements, pred)
	}

	tree, err := pg_query.Parse("SELECT 1 WHERE " + trimmed)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidPredicate, pred, err)
	}

	if len(tree.Stmts) != 1 {
		return fmt.Errorf("%w: %q", ErrMultipleStatements, pred)
	}

	node, ok := tree.Stmts[0].Stmt.Node.(*pg_query.Node_SelectStmt)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPredicate, pred)
	}

	sel := node.SelectStmt
	if sel.Op != pg_query.SetOperation_SETOP_NONE {
		return fmt.Errorf("%w: %q", ErrInvalidPredicate, pred)
	}

	if sel.WhereClause == nil {
		return fmt.Errorf("%w: %q", ErrInvalidPredicate, pred)
	}

	return nil
}
