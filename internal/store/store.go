// Package store defines the capability contract this subsystem requires from
// a table store: list, create, and open named tables, and query, insert, and
// delete records within them. Backends live in the sqlite and pgstore
// subpackages; the migration core depends only on these interfaces.
package store

import "context"

// Store is the top-level handle to a table store.
type Store interface {
	// ListTableNames returns the names of all tables in the store.
	ListTableNames(ctx context.Context) ([]string, error)

	// CreateTable creates a table with the given schema and returns a handle
	// to it. Returns ErrTableExists if a table with that name already exists.
	CreateTable(ctx context.Context, name string, schema Schema) (Table, error)

	// OpenTable opens an existing table. Returns ErrTableNotFound if no table
	// with that name exists.
	OpenTable(ctx context.Context, name string) (Table, error)
}

// Table is a handle to a single named table.
type Table interface {
	// Name returns the table's name.
	Name() string

	// Query returns records matching the predicate, at most limit rows.
	// A limit <= 0 means no limit. The predicate is a simple boolean
	// comparison expression over column names, e.g. `table_name = 'memos'`.
	Query(ctx context.Context, predicate string, limit int) ([]Record, error)

	// Insert appends the given records to the table.
	Insert(ctx context.Context, records []Record) error

	// Delete removes all records matching the predicate.
	Delete(ctx context.Context, predicate string) error
}

// Record is a single row, keyed by field name. Values are string, int64,
// float64, or []float32 for vector fields.
type Record map[string]any
