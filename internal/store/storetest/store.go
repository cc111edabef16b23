// Package storetest provides an in-memory store.Store implementation for
// unit tests. It supports the single-field equality predicates the migration
// core issues, and lets tests inject failures on any operation.
package storetest

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mkoval/tablestore-migrate/internal/store"
)

// Store is an in-memory table store.
type Store struct {
	mu     sync.Mutex
	tables map[string]*Table

	// Injectable failures; when set, the corresponding method returns the error.
	ListErr   error
	CreateErr error
	OpenErr   error
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{tables: make(map[string]*Table)}
}

// ListTableNames returns all table names sorted ascending.
func (s *Store) ListTableNames(_ context.Context) ([]string, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}

// CreateTable creates a new empty table.
func (s *Store) CreateTable(_ context.Context, name string, schema store.Schema) (store.Table, error) {
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}

	if err := schema.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[name]; ok {
		return nil, fmt.Errorf("%s: %w", name, store.ErrTableExists)
	}

	t := &Table{name: name, schema: schema}
	s.tables[name] = t

	return t, nil
}

// OpenTable returns the named table.
func (s *Store) OpenTable(_ context.Context, name string) (store.Table, error) {
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, store.ErrTableNotFound)
	}

	return t, nil
}

// Table returns the named table for direct inspection in tests, or nil if
// it does not exist.
func (s *Store) Table(name string) *Table {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tables[name]
}

// Table is an in-memory table.
type Table struct {
	mu     sync.Mutex
	name   string
	schema store.Schema
	rows   []store.Record

	QueryErr  error
	InsertErr error
	DeleteErr error
}

// Name returns the table's name.
func (t *Table) Name() string { return t.name }

// Schema returns the schema the table was created with.
func (t *Table) Schema() store.Schema { return t.schema }

// Rows returns a copy of all rows, for test assertions.
func (t *Table) Rows() []store.Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]store.Record, len(t.rows))
	for i, r := range t.rows {
		out[i] = cloneRecord(r)
	}

	return out
}

// Query returns rows matching an equality predicate, up to limit.
func (t *Table) Query(_ context.Context, predicate string, limit int) ([]store.Record, error) {
	if t.QueryErr != nil {
		return nil, t.QueryErr
	}

	match, err := parseEq(predicate)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var out []store.Record

	for _, r := range t.rows {
		if !match(r) {
			continue
		}

		out = append(out, cloneRecord(r))

		if limit > 0 && len(out) >= limit {
			break
		}
	}

	return out, nil
}

// Insert appends copies of the given records.
func (t *Table) Insert(_ context.Context, records []store.Record) error {
	if t.InsertErr != nil {
		return t.InsertErr
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, r := range records {
		t.rows = append(t.rows, cloneRecord(r))
	}

	return nil
}

// Delete removes all rows matching an equality predicate.
func (t *Table) Delete(_ context.Context, predicate string) error {
	if t.DeleteErr != nil {
		return t.DeleteErr
	}

	match, err := parseEq(predicate)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.rows[:0]

	for _, r := range t.rows {
		if !match(r) {
			kept = append(kept, r)
		}
	}

	t.rows = kept

	return nil
}

// eqPattern matches `field = 'value'` and `field = 123` predicates.
var eqPattern = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(?:'((?:[^']|'')*)'|(-?\d+))\s*$`) //nolint:gochecknoglobals // compiled once

// parseEq compiles a single equality predicate into a row matcher.
func parseEq(predicate string) (func(store.Record) bool, error) {
	m := eqPattern.FindStringSubmatch(predicate)
	if m == nil {
		return nil, fmt.Errorf("storetest: unsupported predicate %q", predicate)
	}

	field := m[1]

	if m[3] != "" {
		want, err := strconv.ParseInt(m[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("storetest: parsing predicate value %q: %w", m[3], err)
		}

		return func(r store.Record) bool {
			got, ok := r[field].(int64)
			return ok && got == want
		}, nil
	}

	want := strings.ReplaceAll(m[2], "''", "'")

	return func(r store.Record) bool {
		got, ok := r[field].(string)
		return ok && got == want
	}, nil
}

func cloneRecord(r store.Record) store.Record {
	out := make(store.Record, len(r))
	for k, v := range r {
		if vec, ok := v.([]float32); ok {
			cp := make([]float32, len(vec))
			copy(cp, vec)
			out[k] = cp

			continue
		}

		out[k] = v
	}

	return out
}
