// Package pgstore implements the store contract on PostgreSQL via pgx.
// Vector fields are stored as DOUBLE PRECISION arrays. A session advisory
// lock is exposed so callers can serialize orchestrator runs.
package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkoval/tablestore-migrate/internal/store"
)

const defaultMaxConns = 5

// Store is a PostgreSQL-backed table store.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database at databaseURL with a conservative pool size
// and verifies connectivity with a ping.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDatabaseURL, err)
	}

	poolCfg.MaxConns = defaultMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// ListTableNames returns all table names in the public schema, sorted ascending.
func (s *Store) ListTableNames(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	names, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var name string
		if scanErr := row.Scan(&name); scanErr != nil {
			return "", fmt.Errorf("scanning table name: %w", scanErr)
		}

		return name, nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	return names, nil
}

// CreateTable creates a table with the given schema.
func (s *Store) CreateTable(ctx context.Context, name string, schema store.Schema) (store.Table, error) {
	if !store.ValidIdentifier(name) {
		return nil, fmt.Errorf("%w: table name %q", store.ErrInvalidIdentifier, name)
	}

	if err := schema.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return nil, err
	}

	if exists {
		return nil, fmt.Errorf("%s: %w", name, store.ErrTableExists)
	}

	cols := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		cols[i] = f.Name + " " + columnType(f.Type)
	}

	ddl := "CREATE TABLE " + name + " (" + strings.Join(cols, ", ") + ")"

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("creating table %s: %w", name, err)
	}

	return &Table{pool: s.pool, name: name}, nil
}

// OpenTable opens an existing table.
func (s *Store) OpenTable(ctx context.Context, name string) (store.Table, error) {
	if !store.ValidIdentifier(name) {
		return nil, fmt.Errorf("%w: table name %q", store.ErrInvalidIdentifier, name)
	}

	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, fmt.Errorf("%s: %w", name, store.ErrTableNotFound)
	}

	return &Table{pool: s.pool, name: name}, nil
}

func (s *Store) tableExists(ctx context.Context, name string) (bool, error) {
	var exists bool

	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_tables WHERE schemaname = 'public' AND tablename = $1)`,
		name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", name, err)
	}

	return exists, nil
}

// columnType maps a contract field type to a PostgreSQL column type.
func columnType(t store.FieldType) string {
	switch t {
	case store.TypeString:
		return "TEXT"
	case store.TypeInt64:
		return "BIGINT"
	case store.TypeFloat64:
		return "DOUBLE PRECISION"
	case store.TypeVector:
		return "DOUBLE PRECISION[]"
	default:
		return "TEXT"
	}
}
