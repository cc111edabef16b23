package pgstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkoval/tablestore-migrate/internal/predicate"
	"github.com/mkoval/tablestore-migrate/internal/store"
)

// Table is a handle to one PostgreSQL table.
type Table struct {
	pool *pgxpool.Pool
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

	rows, err := t.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", t.name, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()

	var out []store.Record

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scanning row from %s: %w", t.name, err)
		}

		rec := make(store.Record, len(fields))
		for i, fd := range fields {
			rec[string(fd.Name)] = fromColumnValue(vals[i])
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

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning insert into %s: %w", t.name, err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // rollback on committed tx returns ErrTxClosed

	for _, rec := range records {
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
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = toColumnValue(rec[field])
		}

		q := "INSERT INTO " + t.name +
			" (" + strings.Join(fields, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"

		if _, err := tx.Exec(ctx, q, args...); err != nil {
			return fmt.Errorf("inserting into %s: %w", t.name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing insert into %s: %w", t.name, err)
	}

	return nil
}

// Delete removes all records matching the predicate.
func (t *Table) Delete(ctx context.Context, pred string) error {
	if err := predicate.Validate(pred); err != nil {
		return err
	}

	if _, err := t.pool.Exec(ctx, "DELETE FROM "+t.name+" WHERE "+pred); err != nil {
		return fmt.Errorf("deleting from %s: %w", t.name, err)
	}

	return nil
}

// toColumnValue converts a record value to its wire representation.
// Vectors go over as float64 arrays.
func toColumnValue(v any) any {
	if vec, ok := v.([]float32); ok {
		out := make([]float64, len(vec))
		for i, f := range vec {
			out[i] = float64(f)
		}

		return out
	}

	return v
}

// fromColumnValue converts a decoded column value back to a record value.
// Array decoding varies by pgx type map, so all float-array shapes collapse
// to []float32.
func fromColumnValue(v any) any {
	switch x := v.(type) {
	case []float64:
		out := make([]float32, len(x))
		for i, f := range x {
			out[i] = float32(f)
		}

		return out
	case []float32:
		return x
	case []any:
		out := make([]float32, 0, len(x))

		for _, e := range x {
			f, ok := e.(float64)
			if !ok {
				return v
			}

			out = append(out, float32(f))
		}

		return out
	case int32:
		return int64(x)
	default:
		return v
	}
}
