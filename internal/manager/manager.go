// Package manager orchestrates a full migration run: it bootstraps the
// metadata table, walks every table known to the registry, diffs the recorded
// version against the catalog's latest, and drives the executor over the
// pending migrations. Tables are processed sequentially and independently;
// a failure aborts the run with the remaining tables left at their prior
// versions.
package manager

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mkoval/tablestore-migrate/internal/executor"
	"github.com/mkoval/tablestore-migrate/internal/registry"
	"github.com/mkoval/tablestore-migrate/internal/store"
)

// Per-table statuses reported via Event and TableResult.
const (
	StatusUpToDate = "up-to-date"
	StatusMigrated = "migrated"
	StatusPlanned  = "planned" // dry-run only
	StatusAhead    = "ahead"   // recorded version exceeds the catalog's latest
	StatusFailed   = "failed"
)

// Event is emitted once per table as the run progresses.
type Event struct {
	TableName   string
	Status      string
	FromVersion int64
	ToVersion   int64
	Pending     []registry.Migration
	Err         error
}

// Manager drives migration runs against one store.
type Manager struct {
	store      store.Store
	registry   *registry.Registry
	exec       *executor.Executor
	dryRun     bool
	verbose    bool
	logger     *slog.Logger
	clock      executor.Clock
	onProgress func(Event)
}

// Option configures a Manager.
type Option func(*Manager)

// WithDryRun makes Initialize report pending migrations without applying
// anything or touching metadata.
func WithDryRun(b bool) Option {
	return func(m *Manager) { m.dryRun = b }
}

// WithVerbose enables per-migration info logging during runs.
func WithVerbose(b bool) Option {
	return func(m *Manager) { m.verbose = b }
}

// WithLogger sets the logger for the manager and its executor.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides the executor's wall clock, for tests.
func WithClock(c executor.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithProgress sets a callback invoked once per table as the run progresses.
func WithProgress(fn func(Event)) Option {
	return func(m *Manager) { m.onProgress = fn }
}

// New creates a Manager over the given store and catalog.
func New(st store.Store, reg *registry.Registry, opts ...Option) *Manager {
	m := &Manager{
		store:    st,
		registry: reg,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	execOpts := []executor.Option{executor.WithLogger(m.logger)}
	if m.clock != nil {
		execOpts = append(execOpts, executor.WithClock(m.clock))
	}

	m.exec = executor.New(st, execOpts...)

	return m
}

// Initialize runs all pending migrations and returns a report of what was
// done (or, in dry-run mode, what would be done). Any migration or metadata
// failure aborts the run and is returned; tables not yet reached keep their
// prior versions and are picked up by the next run.
func (m *Manager) Initialize(ctx context.Context) (*Report, error) {
	meta, err := m.exec.EnsureMetadataTable(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.NewString(), DryRun: m.dryRun}

	for _, tableName := range m.registry.TableNames() {
		result, err := m.initializeTable(ctx, meta, tableName)
		if err != nil {
			return nil, err
		}

		report.Results = append(report.Results, result)
	}

	return report, nil
}

// initializeTable diffs one table against the catalog and applies or plans
// its pending migrations.
func (m *Manager) initializeTable(ctx context.Context, meta store.Table, tableName string) (TableResult, error) {
	current := m.exec.CurrentVersion(ctx, meta, tableName)
	target := m.registry.LatestVersion(tableName)

	if current == target {
		if m.verbose {
			m.logger.Info("table up to date", "table", tableName, "version", current)
		}

		m.fireProgress(Event{TableName: tableName, Status: StatusUpToDate, FromVersion: current, ToVersion: current})

		return TableResult{TableName: tableName, Status: StatusUpToDate, FromVersion: current, ToVersion: current}, nil
	}

	pending := m.registry.PendingMigrations(tableName, current)
	if len(pending) == 0 {
		// Recorded version is ahead of the catalog, usually after rolling
		// back application code. Not fatal here; Validate reports it.
		m.logger.Warn("recorded version ahead of catalog",
			"table", tableName, "current", current, "latest", target)

		m.fireProgress(Event{TableName: tableName, Status: StatusAhead, FromVersion: current, ToVersion: target})

		return TableResult{TableName: tableName, Status: StatusAhead, FromVersion: current, ToVersion: current}, nil
	}

	if m.dryRun {
		planned := make([]int64, len(pending))

		for i, p := range pending {
			planned[i] = p.Version
			m.logger.Info("pending migration",
				"table", tableName, "version", p.Version, "description", p.Description)
		}

		m.fireProgress(Event{
			TableName:   tableName,
			Status:      StatusPlanned,
			FromVersion: current,
			ToVersion:   target,
			Pending:     pending,
		})

		return TableResult{
			TableName:   tableName,
			Status:      StatusPlanned,
			FromVersion: current,
			ToVersion:   current,
			Planned:     planned,
		}, nil
	}

	if m.verbose {
		m.logger.Info("migrating table",
			"table", tableName, "from", current, "to", target, "pending", len(pending))
	}

	res, err := m.exec.ExecuteMigrations(ctx, pending, meta)
	if err != nil {
		m.fireProgress(Event{TableName: tableName, Status: StatusFailed, FromVersion: current, Err: err})

		return TableResult{}, fmt.Errorf("migrating table %s: %w", tableName, err)
	}

	m.fireProgress(Event{
		TableName:   tableName,
		Status:      StatusMigrated,
		FromVersion: res.FromVersion,
		ToVersion:   res.ToVersion,
	})

	return TableResult{
		TableName:   tableName,
		Status:      StatusMigrated,
		FromVersion: res.FromVersion,
		ToVersion:   res.ToVersion,
		Executed:    res.Executed,
	}, nil
}

// Status returns the recorded version for every table in the catalog.
func (m *Manager) Status(ctx context.Context) (map[string]int64, error) {
	meta, err := m.exec.EnsureMetadataTable(ctx)
	if err != nil {
		return nil, err
	}

	status := make(map[string]int64)
	for _, tableName := range m.registry.TableNames() {
		status[tableName] = m.exec.CurrentVersion(ctx, meta, tableName)
	}

	return status, nil
}

// Validate compares every table's recorded version against the catalog's
// latest. Mismatches are reported, not thrown: after a successful Initialize
// a non-empty error list indicates a logic bug, and the caller decides
// severity.
func (m *Manager) Validate(ctx context.Context) (Validation, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return Validation{}, err
	}

	v := Validation{Valid: true}

	for _, tableName := range m.registry.TableNames() {
		current := status[tableName]
		target := m.registry.LatestVersion(tableName)

		if current != target {
			v.Valid = false
			v.Errors = append(v.Errors, fmt.Sprintf("%s: current v%d, target v%d", tableName, current, target))
		}
	}

	return v, nil
}

func (m *Manager) fireProgress(event Event) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
