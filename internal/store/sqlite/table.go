package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/mkoval/tablestore-migrate/internal/predicate"
	"github.com/mkoval/tablestore-migrate/internal/store"
)

// Table is a handle to one SQLite table.
type Table struct {
	db   *sql.DB
	name string
}

// Name returns the table's name.
func (t *Table) Name() string { return t.name }

// Query returns records matching the predicate, at most limit rows.
func (t *Table) Query(ctx context.Context, pred string, limit int) ([]store.Record, error) {
	if err := predicate.Validate(pred); err != nil {
		return nil, err
	}

	q := "SELECT * FROM " + t.name + " WHERE " + pred
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := t.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", t.name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", t.name, err)
	}

	var out []store.Record

	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))

		for i := range vals {
			ptrs[i] = &vals[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row from %s: %w", t.name, err)
		}

		rec := make(store.Record, len(cols))
		for i, col := range cols {
			rec[col] = fromColumnValue(vals[i])
		}

		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying %s: %w", t.name, err)
	}

	return out, nil
}

// Insert appends records in a single transaction.
func (t *Table) Insert(ctx context.Context, records []store.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning insert into %s: %w", t.name, err)
	}

	for _, rec := range records {
		if err := insertOne(ctx, tx, t.name, rec); err != nil {
			_ = tx.Rollback()

			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing insert into %s: %w", t.name, err)
	}

	return nil
}

// Delete removes all records matching the predicate.
func (t *Table) Delete(ctx context.Context, pred string) error {
	if err := predicate.Validate(pred); err != nil {
		return err
	}

	if _, err := t.db.ExecContext(ctx, "DELETE FROM "+t.name+" WHERE "+pred); err != nil {
		return fmt.Errorf("deleting from %s: %w", t.name, err)
	}

	return nil
}

func insertOne(ctx context.Context, tx *sql.Tx, table string, rec store.Record) error {
	fields := make([]string, 0, len(rec))

	for field := range rec {
		if !store.ValidIdentifier(field) {
			return fmt.Errorf("%w: field name %q", store.ErrInvalidIdentifier, field)
		}

		fields = append(fields, field)
	}

	sort.Strings(fields)

	placeholders := make([]string, len(fields))
	args := make([]any, len(fields))

	for i, field := range fields {
		placeholders[i] = "?"
		args[i] = toColumnValue(rec[field])
	}

	q := "INSERT INTO " + table +
		" (" + strings.Join(fields, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"

	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("inserting into %s: %w", table, err)
	}

	return nil
}

// toColumnValue converts a record value to its driver representation.
func toColumnValue(v any) any {
	if vec, ok := v.([]float32); ok {
		return vectorToBlob(vec)
	}

	return v
}

// fromColumnValue converts a scanned driver value back to a record value.
func fromColumnValue(v any) any {
	if blob, ok := v.([]byte); ok {
		return vectorFromBlob(blob)
	}

	return v
}
