// Package executor applies migrations against the store and keeps the
// persisted version metadata consistent with what was actually applied.
// Execution is forward-only: a version is recorded only after its migration
// body has fully succeeded, and there is no rollback.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkoval/tablestore-migrate/internal/registry"
	"github.com/mkoval/tablestore-migrate/internal/store"
)

// Result describes what one execution (single step or batch) did for a table.
type Result struct {
	TableName   string
	FromVersion int64
	ToVersion   int64
	Executed    []int64 // version numbers in execution order
	ExecutedAt  int64   // unix millis
}

// Executor applies migrations and records progress in the metadata table.
type Executor struct {
	store  store.Store
	clock  Clock
	logger *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock overrides the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(e *Executor) { e.clock = c }
}

// WithLogger sets the logger used for degraded-read warnings.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// New creates an Executor over the given store.
func New(st store.Store, opts ...Option) *Executor {
	e := &Executor{
		store:  st,
		clock:  SystemClock(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ExecuteMigration applies a single migration and records the new version.
// The migration body runs first; only on success is the metadata row
// replaced, so a failed body leaves the recorded version untouched.
func (e *Executor) ExecuteMigration(ctx context.Context, m registry.Migration, meta store.Table) (Result, error) {
	from := e.CurrentVersion(ctx, meta, m.TableName)

	if err := e.executeOne(ctx, m, meta); err != nil {
		return Result{}, err
	}

	return Result{
		TableName:   m.TableName,
		FromVersion: from,
		ToVersion:   m.Version,
		Executed:    []int64{m.Version},
		ExecutedAt:  e.clock.NowMilli(),
	}, nil
}

// ExecuteMigrations applies an ordered batch of migrations for one table,
// stopping at the first failure. Migrations applied before the failure stay
// applied and recorded; there is no automatic rollback.
func (e *Executor) ExecuteMigrations(ctx context.Context, migrations []registry.Migration, meta store.Table) (Result, error) {
	if len(migrations) == 0 {
		return Result{}, ErrEmptyBatch
	}

	tableName := migrations[0].TableName

	for _, m := range migrations[1:] {
		if m.TableName != tableName {
			return Result{}, fmt.Errorf("%w: %s and %s", ErrMixedBatch, tableName, m.TableName)
		}
	}

	from := e.CurrentVersion(ctx, meta, tableName)
	executed := make([]int64, 0, len(migrations))

	for _, m := range migrations {
		if err := e.executeOne(ctx, m, meta); err != nil {
			return Result{}, err
		}

		executed = append(executed, m.Version)
	}

	return Result{
		TableName:   tableName,
		FromVersion: from,
		ToVersion:   executed[len(executed)-1],
		Executed:    executed,
		ExecutedAt:  e.clock.NowMilli(),
	}, nil
}

// executeOne runs the migration body and, on success, replaces the metadata
// row for the table.
func (e *Executor) executeOne(ctx context.Context, m registry.Migration, meta store.Table) error {
	if err := m.Up(ctx, e.store); err != nil {
		return fmt.Errorf("%w: table %s version %d: %w", ErrMigrationFailed, m.TableName, m.Version, err)
	}

	rec := MetadataRecord{
		TableName:      m.TableName,
		CurrentVersion: m.Version,
		LastMigratedAt: e.clock.NowMilli(),
	}

	return e.writeRecord(ctx, meta, rec)
}
