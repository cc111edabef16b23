package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkoval/tablestore-migrate/internal/store"
)

// MetadataTableName is the store table that tracks each table's current
// migration version.
const MetadataTableName = "schema_migrations"

// Metadata column names.
const (
	colTableName      = "table_name"
	colCurrentVersion = "current_version"
	colLastMigratedAt = "last_migrated_at"
)

// MetadataSchema is the shape of the metadata table: one row per migrated
// table, keyed by table name.
func MetadataSchema() store.Schema {
	return store.Schema{Fields: []store.Field{
		{Name: colTableName, Type: store.TypeString},
		{Name: colCurrentVersion, Type: store.TypeInt64},
		{Name: colLastMigratedAt, Type: store.TypeInt64},
	}}
}

// MetadataRecord is one persisted row of the metadata table.
type MetadataRecord struct {
	TableName      string
	CurrentVersion int64
	LastMigratedAt int64
}

// EnsureMetadataTable opens the metadata table, creating it if it does not
// exist. Safe to call on every run.
func (e *Executor) EnsureMetadataTable(ctx context.Context) (store.Table, error) {
	names, err := e.store.ListTableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadataBootstrap, err)
	}

	for _, name := range names {
		if name == MetadataTableName {
			t, err := e.store.OpenTable(ctx, MetadataTableName)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMetadataBootstrap, err)
			}

			return t, nil
		}
	}

	t, err := e.store.CreateTable(ctx, MetadataTableName, MetadataSchema())
	if err != nil {
		// Lost a race with another process that created it first.
		if errors.Is(err, store.ErrTableExists) {
			t, err = e.store.OpenTable(ctx, MetadataTableName)
			if err == nil {
				return t, nil
			}
		}

		return nil, fmt.Errorf("%w: %w", ErrMetadataBootstrap, err)
	}

	return t, nil
}

// CurrentVersion returns the recorded migration version for tableName, or 0
// if no record exists. Read failures degrade to 0 with a warning instead of
// aborting: under-migrating is self-correcting, since the pending migrations
// are simply attempted again.
func (e *Executor) CurrentVersion(ctx context.Context, meta store.Table, tableName string) int64 {
	rows, err := meta.Query(ctx, store.Eq(colTableName, tableName), 1)
	if err != nil {
		e.logger.Warn("reading migration metadata failed; assuming version 0",
			"table", tableName, "error", err)

		return 0
	}

	if len(rows) == 0 {
		return 0
	}

	v, ok := rows[0][colCurrentVersion].(int64)
	if !ok {
		e.logger.Warn("migration metadata has malformed current_version; assuming version 0",
			"table", tableName, "value", rows[0][colCurrentVersion])

		return 0
	}

	return v
}

// writeRecord replaces the metadata row for rec.TableName. The store has no
// atomic upsert, so this is a delete followed by an insert; the row is
// briefly absent between the two.
func (e *Executor) writeRecord(ctx context.Context, meta store.Table, rec MetadataRecord) error {
	pred := store.Eq(colTableName, rec.TableName)

	existing, err := meta.Query(ctx, pred, 1)
	if err != nil {
		return fmt.Errorf("%w: querying record for %s: %w", ErrMetadataWrite, rec.TableName, err)
	}

	if len(existing) > 0 {
		if err := meta.Delete(ctx, pred); err != nil {
			return fmt.Errorf("%w: deleting record for %s: %w", ErrMetadataWrite, rec.TableName, err)
		}
	}

	row := store.Record{
		colTableName:      rec.TableName,
		colCurrentVersion: rec.CurrentVersion,
		colLastMigratedAt: rec.LastMigratedAt,
	}

	if err := meta.Insert(ctx, []store.Record{row}); err != nil {
		return fmt.Errorf("%w: inserting record for %s: %w", ErrMetadataWrite, rec.TableName, err)
	}

	return nil
}
