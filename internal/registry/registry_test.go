package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoval/tablestore-migrate/internal/registry"
	"github.com/mkoval/tablestore-migrate/internal/store"
)

func noopUp(_ context.Context, _ store.Store) error { return nil }

func TestNew_duplicateVersion(t *testing.T) {
	t.Parallel()

	_, err := registry.New(
		registry.Migration{Version: 1, TableName: "memos", Up: noopUp},
		registry.Migration{Version: 1, TableName: "memos", Up: noopUp},
	)

	assert.ErrorIs(t, err, registry.ErrDuplicateVersion)
}

func TestNew_sameVersionDifferentTables(t *testing.T) {
	t.Parallel()

	_, err := registry.New(
		registry.Migration{Version: 1, TableName: "memos", Up: noopUp},
		registry.Migration{Version: 1, TableName: "attachments", Up: noopUp},
	)

	assert.NoError(t, err)
}

func TestNew_invalidMigrations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		m       registry.Migration
		wantErr error
	}{
		{"zero version", registry.Migration{Version: 0, TableName: "memos", Up: noopUp}, registry.ErrInvalidVersion},
		{"negative version", registry.Migration{Version: -2, TableName: "memos", Up: noopUp}, registry.ErrInvalidVersion},
		{"bad table name", registry.Migration{Version: 1, TableName: "no spaces", Up: noopUp}, registry.ErrInvalidTableName},
		{"nil up", registry.Migration{Version: 1, TableName: "memos"}, registry.ErrNilUpFunc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := registry.New(tt.m)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMigrationsForTable_sortedAscending(t *testing.T) {
	t.Parallel()

	reg, err := registry.New(
		registry.Migration{Version: 3, TableName: "memos", Up: noopUp},
		registry.Migration{Version: 1, TableName: "memos", Up: noopUp},
		registry.Migration{Version: 2, TableName: "memos", Up: noopUp},
	)
	require.NoError(t, err)

	ms := reg.MigrationsForTable("memos")
	require.Len(t, ms, 3)
	assert.Equal(t, int64(1), ms[0].Version)
	assert.Equal(t, int64(2), ms[1].Version)
	assert.Equal(t, int64(3), ms[2].Version)
}

func TestMigrationsForTable_unknownTable(t *testing.T) {
	t.Parallel()

	reg, err := registry.New()
	require.NoError(t, err)

	assert.Empty(t, reg.MigrationsForTable("ghost"))
}

func TestPendingMigrations(t *testing.T) {
	t.Parallel()

	reg, err := registry.New(
		registry.Migration{Version: 1, TableName: "memos", Up: noopUp},
		registry.Migration{Version: 2, TableName: "memos", Up: noopUp},
		registry.Migration{Version: 5, TableName: "memos", Up: noopUp},
	)
	require.NoError(t, err)

	t.Run("from zero returns all", func(t *testing.T) {
		t.Parallel()

		pending := reg.PendingMigrations("memos", 0)
		require.Len(t, pending, 3)
	})

	t.Run("from middle skips applied", func(t *testing.T) {
		t.Parallel()

		pending := reg.PendingMigrations("memos", 2)
		require.Len(t, pending, 1)
		assert.Equal(t, int64(5), pending[0].Version)
	})

	t.Run("from ahead of catalog returns none", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, reg.PendingMigrations("memos", 9))
	})
}

func TestLatestVersion(t *testing.T) {
	t.Parallel()

	reg, err := registry.New(
		registry.Migration{Version: 2, TableName: "memos", Up: noopUp},
		registry.Migration{Version: 7, TableName: "memos", Up: noopUp},
	)
	require.NoError(t, err)

	assert.Equal(t, int64(7), reg.LatestVersion("memos"))
	assert.Equal(t, int64(0), reg.LatestVersion("ghost"))
}

func TestTableNames_sortedDistinct(t *testing.T) {
	t.Parallel()

	reg, err := registry.New(
		registry.Migration{Version: 1, TableName: "b", Up: noopUp},
		registry.Migration{Version: 1, TableName: "a", Up: noopUp},
		registry.Migration{Version: 2, TableName: "b", Up: noopUp},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, reg.TableNames())
}
