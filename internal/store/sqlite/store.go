// Package sqlite implements the store contract on an embedded SQLite
// database via the pure-Go modernc.org driver. Vector fields are stored as
// little-endian float32 BLOBs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/mkoval/tablestore-migrate/internal/store"
)

// Store is an embedded SQLite-backed table store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrStorePathRequired
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// ListTableNames returns all user table names, sorted ascending.
func (s *Store) ListTableNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}

		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
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

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("creating table %s: %w", name, err)
	}

	return &Table{db: s.db, name: name}, nil
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

	return &Table{db: s.db, name: name}, nil
}

func (s *Store) tableExists(ctx context.Context, name string) (bool, error) {
	var exists bool

	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?)`,
		name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", name, err)
	}

	return exists, nil
}

// columnType maps a contract field type to a SQLite column type.
func columnType(t store.FieldType) string {
	switch t {
	case store.TypeString:
		return "TEXT"
	case store.TypeInt64:
		return "INTEGER"
	case store.TypeFloat64:
		return "REAL"
	case store.TypeVector:
		return "BLOB"
	default:
		return "TEXT"
	}
}
