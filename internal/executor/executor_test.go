package executor_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoval/tablestore-migrate/internal/executor"
	"github.com/mkoval/tablestore-migrate/internal/registry"
	"github.com/mkoval/tablestore-migrate/internal/store"
	"github.com/mkoval/tablestore-migrate/internal/store/storetest"
)

// fixedClock always returns the same instant.
type fixedClock struct {
	millis int64
}

func (c fixedClock) NowMilli() int64 { return c.millis }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newExecutor(st store.Store) *executor.Executor {
	return executor.New(st,
		executor.WithClock(fixedClock{millis: 1700000000000}),
		executor.WithLogger(quietLogger()),
	)
}

func createWidgets(ctx context.Context, st store.Store) error {
	_, err := st.CreateTable(ctx, "widgets", store.Schema{Fields: []store.Field{
		{Name: "id", Type: store.TypeString},
	}})

	return err
}

func TestEnsureMetadataTable_createsWhenAbsent(t *testing.T) {
	t.Parallel()

	st := storetest.New()
	exec := newExecutor(st)

	meta, err := exec.EnsureMetadataTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, executor.MetadataTableName, meta.Name())

	names, err := st.ListTableNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{executor.MetadataTableName}, names)
}

func TestEnsureMetadataTable_idempotent(t *testing.T) {
	t.Parallel()

	st := storetest.New()
	exec := newExecutor(st)
	ctx := context.Background()

	_, err := exec.EnsureMetadataTable(ctx)
	require.NoError(t, err)

	meta, err := exec.EnsureMetadataTable(ctx)
	require.NoError(t, err)
	assert.Equal(t, executor.MetadataTableName, meta.Name())

	names, err := st.ListTableNames(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 1)
}

func TestEnsureMetadataTable_listFailure(t *testing.T) {
	t.Parallel()

	st := storetest.New()
	st.ListErr = errors.New("store offline")
	exec := newExecutor(st)

	_, err := exec.EnsureMetadataTable(context.Background())
	assert.ErrorIs(t, err, executor.ErrMetadataBootstrap)
}

func TestCurrentVersion_zeroWhenUntracked(t *testing.T) {
	t.Parallel()

	st := storetest.New()
	exec := newExecutor(st)

	meta, err := exec.EnsureMetadataTable(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), exec.CurrentVersion(context.Background(), meta, "widgets"))
}

func TestCurrentVersion_degradesToZeroOnReadFailure(t *testing.T) {
	t.Parallel()

	st := storetest.New()
	exec := newExecutor(st)
	ctx := context.Background()

	_, err := exec.EnsureMetadataTable(ctx)
	require.NoError(t, err)

	meta := st.Table(executor.MetadataTableName)
	meta.QueryErr = errors.New("transient read failure")

	assert.Equal(t, int64(0), exec.CurrentVersion(ctx, meta, "widgets"))
}

func TestExecuteMigration_recordsVersion(t *testing.T) {
	t.Parallel()

	st := storetest.New()
	exec := newExecutor(st)
	ctx := context.Background()

	meta, err := exec.EnsureMetadataTable(ctx)
	require.NoError(t, err)

	m := registry.Migration{Version: 1, TableName: "widgets", Description: "create table", Up: createWidgets}

	res, err := exec.ExecuteMigration(ctx, m, meta)
	require.NoError(t, err)

	assert.Equal(t, "widgets", res.TableName)
	assert.Equal(t, int64(0), res.FromVersion)
	assert.Equal(t, int64(1), res.ToVersion)
	assert.Equal(t, []int64{1}, res.Executed)
	assert.Equal(t, int64(1700000000000), res.ExecutedAt)

	assert.Equal(t, int64(1), exec.CurrentVersion(ctx, meta, "widgets"))

	rows := st.Table(executor.MetadataTableName).Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "widgets", rows[0]["table_name"])
	assert.Equal(t, int64(1), rows[0]["current_version"])
	assert.Equal(t, int64(1700000000000), rows[0]["last_migrated_at"])
}

func TestExecuteMigration_bodyFailureLeavesMetadataUntouched(t *testing.T) {
	t.Parallel()

	st := storetest.New()
	exec := newExecutor(st)
	ctx := context.Background()

	meta, err := exec.EnsureMetadataTable(ctx)
	require.NoError(t, err)

	boom := errors.New("up exploded")
	m := registry.Migration{
		Version:   1,
		TableName: "widgets",
		Up:        func(_ context.Context, _ store.Store) error { return boom },
	}

	_, err = exec.ExecuteMigration(ctx, m, meta)
	require.Error(t, err)
	assert.ErrorIs(t, err, executor.ErrMigrationFailed)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "widgets")
	assert.Contains(t, err.Error(), "version 1")

	assert.Equal(t, int64(0), exec.CurrentVersion(ctx, meta, "widgets"))
	assert.Empty(t, st.Table(executor.MetadataTableName).Rows())
}

func TestExecuteMigration_replacesExistingRecord(t *testing.T) {
	t.Parallel()

	st := storetest.New()
	exec := newExecutor(st)
	ctx := context.Background()

	meta, err := exec.EnsureMetadataTable(ctx)
	require.NoError(t, err)

	v1 := registry.Migration{Version: 1, TableName: "widgets", Up: createWidgets}
	v2 := registry.Migration{
		Version:   2,
		TableName: "widgets",
		Up:        func(_ context.Context, _ store.Store) error { return nil },
	}

	_, err = exec.ExecuteMigration(ctx, v1, meta)
	require.NoError(t, err)

	_, err = exec.ExecuteMigration(ctx, v2, meta)
	require.NoError(t, err)

	// Exactly one record per table, reflecting the latest version.
	rows := st.Table(executor.MetadataTableName).Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0]["current_version"])
}

func TestExecuteMigration_metadataWriteFailure(t *testing.T) {
	t.Parallel()

	st := storetest.New()
	exec := newExecutor(st)
	ctx := context.Background()

	_, err := exec.EnsureMetadataTable(ctx)
	require.NoError(t, err)

	meta := st.Table(executor.MetadataTableName)
	meta.InsertErr = errors.New("disk full")

	m := registry.Migration{Version: 1, TableName: "widgets", Up: createWidgets}

	_, err = exec.ExecuteMigration(ctx, m, meta)
	assert.ErrorIs(t, err, executor.ErrMetadataWrite)
}

func TestExecuteMigrations_appliesInOrder(t *testing.T) {
	t.Parallel()

	st := storetest.New()
	exec := newExecutor(st)
	ctx := context.Background()

	meta, err := exec.EnsureMetadataTable(ctx)
	require.NoError(t, err)

	var order []int64

	mk := func(v int64) registry.Migration {
		return registry.Migration{
			Version:   v,
			TableName: "widgets",
			Up: func(_ context.Context, _ store.Store) error {
				order = append(order, v)
				return nil
			},
		}
	}

	res, err := exec.ExecuteMigrations(ctx, []registry.Migration{mk(1), mk(2), mk(3)}, meta)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3}, order)
	assert.Equal(t, []int64{1, 2, 3}, res.Executed)
	assert.Equal(t, int64(0), res.FromVersion)
	assert.Equal(t, int64(3), res.ToVersion)
	assert.Equal(t, int64(3), exec.CurrentVersion(ctx, meta, "widgets"))
}

func TestExecuteMigrations_stopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	st := storetest.New()
	exec := newExecutor(st)
	ctx := context.Background()

	meta, err := exec.EnsureMetadataTable(ctx)
	require.NoError(t, err)

	boom := errors.New("v2 exploded")
	v3Ran := false

	migs := []registry.Migration{
		{Version: 1, TableName: "widgets", Up: createWidgets},
		{Version: 2, TableName: "widgets", Up: func(_ context.Context, _ store.Store) error { return boom }},
		{Version: 3, TableName: "widgets", Up: func(_ context.Context, _ store.Store) error {
			v3Ran = true
			return nil
		}},
	}

	_, err = exec.ExecuteMigrations(ctx, migs, meta)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, v3Ran)

	// v1 stays applied and recorded.
	assert.Equal(t, int64(1), exec.CurrentVersion(ctx, meta, "widgets"))
}

func TestExecuteMigrations_emptyBatch(t *testing.T) {
	t.Parallel()

	st := storetest.New()
	exec := newExecutor(st)

	meta, err := exec.EnsureMetadataTable(context.Background())
	require.NoError(t, err)

	_, err = exec.ExecuteMigrations(context.Background(), nil, meta)
	assert.ErrorIs(t, err, executor.ErrEmptyBatch)
}

func TestExecuteMigrations_mixedTables(t *testing.T) {
	t.Parallel()

	st := storetest.New()
	exec := newExecutor(st)

	meta, err := exec.EnsureMetadataTable(context.Background())
	require.NoError(t, err)

	migs := []registry.Migration{
		{Version: 1, TableName: "widgets", Up: createWidgets},
		{Version: 1, TableName: "gadgets", Up: createWidgets},
	}

	_, err = exec.ExecuteMigrations(context.Background(), migs, meta)
	assert.ErrorIs(t, err, executor.ErrMixedBatch)
}
