package registry

import "errors"

// ErrDuplicateVersion indicates two catalog migrations share a (table, version) pair.
var ErrDuplicateVersion = errors.New("duplicate migration version")

// ErrInvalidVersion indicates a migration with a non-positive version.
var ErrInvalidVersion = errors.New("migration version must be positive")

// ErrInvalidTableName indicates a migration targeting an invalid table name.
var ErrInvalidTableName = errors.New("invalid migration table name")

// ErrNilUpFunc indicates a migration without an Up function.
var ErrNilUpFunc = errors.New("migration has no up function")
