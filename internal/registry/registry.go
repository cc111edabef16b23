// Package registry holds the compiled-in migration catalog: an immutable,
// per-table ordered list of versioned transformations. The catalog is
// validated once at construction; lookups afterwards are pure.
package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/mkoval/tablestore-migrate/internal/store"
)

// UpFunc applies one migration's effect against the store.
type UpFunc func(ctx context.Context, st store.Store) error

// Migration is a single versioned transformation targeting one table.
type Migration struct {
	Version     int64
	TableName   string
	Description string
	Up          UpFunc
}

// Registry is an immutable catalog of migrations grouped by table.
type Registry struct {
	byTable map[string][]Migration
}

// New builds a Registry from the given migrations. Each migration must have
// a positive version, a valid table name, and an Up function; duplicate
// (table, version) pairs are a catalog invariant violation and abort
// construction, since the process must not start with an ambiguous catalog.
func New(migrations ...Migration) (*Registry, error) {
	byTable := make(map[string][]Migration)
	seen := make(map[string]map[int64]bool)

	for _, m := range migrations {
		if err := validateMigration(m); err != nil {
			return nil, err
		}

		if seen[m.TableName] == nil {
			seen[m.TableName] = make(map[int64]bool)
		}

		if seen[m.TableName][m.Version] {
			return nil, fmt.Errorf("%w: table %s version %d", ErrDuplicateVersion, m.TableName, m.Version)
		}

		seen[m.TableName][m.Version] = true
		byTable[m.TableName] = append(byTable[m.TableName], m)
	}

	for name := range byTable {
		ms := byTable[name]
		sort.Slice(ms, func(i, j int) bool { return ms[i].Version < ms[j].Version })
	}

	return &Registry{byTable: byTable}, nil
}

func validateMigration(m Migration) error {
	if m.Version <= 0 {
		return fmt.Errorf("%w: table %q version %d", ErrInvalidVersion, m.TableName, m.Version)
	}

	if !store.ValidIdentifier(m.TableName) {
		return fmt.Errorf("%w: table name %q", ErrInvalidTableName, m.TableName)
	}

	if m.Up == nil {
		return fmt.Errorf("%w: table %s version %d", ErrNilUpFunc, m.TableName, m.Version)
	}

	return nil
}

// MigrationsForTable returns the table's migrations sorted by ascending
// version. The returned slice is a copy.
func (r *Registry) MigrationsForTable(tableName string) []Migration {
	ms := r.byTable[tableName]

	out := make([]Migration, len(ms))
	copy(out, ms)

	return out
}

// PendingMigrations returns the table's migrations with version greater than
// fromVersion, in ascending order.
func (r *Registry) PendingMigrations(tableName string, fromVersion int64) []Migration {
	var out []Migration

	for _, m := range r.byTable[tableName] {
		if m.Version > fromVersion {
			out = append(out, m)
		}
	}

	return out
}

// LatestVersion returns the highest version registered for the table, or 0
// if the table has no migrations.
func (r *Registry) LatestVersion(tableName string) int64 {
	ms := r.byTable[tableName]
	if len(ms) == 0 {
		return 0
	}

	return ms[len(ms)-1].Version
}

// TableNames returns the distinct table names in the catalog, sorted for
// deterministic iteration.
func (r *Registry) TableNames() []string {
	names := make([]string, 0, len(r.byTable))
	for name := range r.byTable {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
