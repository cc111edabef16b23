package predicate

import "errors"

// ErrEmptyPredicate indicates an empty or whitespace-only predicate.
var ErrEmptyPredicate = errors.New("empty predicate")

// ErrInvalidPredicate indicates a predicate that is not a single boolean expression.
var ErrInvalidPredicate = errors.New("invalid predicate")

// ErrMultipleStatements indicates a predicate containing stacked statements.
var ErrMultipleStatements = errors.New("predicate contains multiple statements")
