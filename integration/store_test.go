//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoval/tablestore-migrate/internal/store"
)

func TestPGStore_tableLifecycle(t *testing.T) {
	s := SetupPostgres(t)
	ctx := context.Background()

	names, err := s.ListTableNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	schema := store.Schema{Fields: []store.Field{
		{Name: "id", Type: store.TypeString},
		{Name: "size", Type: store.TypeInt64},
	}}

	tbl, err := s.CreateTable(ctx, "attachments", schema)
	require.NoError(t, err)
	assert.Equal(t, "attachments", tbl.Name())

	_, err = s.CreateTable(ctx, "attachments", schema)
	assert.ErrorIs(t, err, store.ErrTableExists)

	names, err = s.ListTableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"attachments"}, names)

	_, err = s.OpenTable(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrTableNotFound)
}

func TestPGStore_recordRoundTrip(t *testing.T) {
	s := SetupPostgres(t)
	ctx := context.Background()

	tbl, err := s.CreateTable(ctx, "memos", store.Schema{Fields: []store.Field{
		{Name: "id", Type: store.TypeString},
		{Name: "content", Type: store.TypeString},
		{Name: "created_at", Type: store.TypeInt64},
	}})
	require.NoError(t, err)

	err = tbl.Insert(ctx, []store.Record{
		{"id": "m1", "content": "first", "created_at": int64(100)},
		{"id": "m2", "content": "second", "created_at": int64(200)},
	})
	require.NoError(t, err)

	rows, err := tbl.Query(ctx, "id = 'm1'", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "first", rows[0]["content"])
	assert.Equal(t, int64(100), rows[0]["created_at"])

	require.NoError(t, tbl.Delete(ctx, "id = 'm1'"))

	rows, err = tbl.Query(ctx, "created_at > 0", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "m2", rows[0]["id"])
}

func TestPGStore_vectorRoundTrip(t *testing.T) {
	s := SetupPostgres(t)
	ctx := context.Background()

	tbl, err := s.CreateTable(ctx, "memo_embeddings", store.Schema{Fields: []store.Field{
		{Name: "id", Type: store.TypeString},
		{Name: "embedding", Type: store.TypeVector, Dim: 4},
	}})
	require.NoError(t, err)

	vec := []float32{0.5, -1.25, 2, 0}

	require.NoError(t, tbl.Insert(ctx, []store.Record{{"id": "e1", "embedding": vec}}))

	rows, err := tbl.Query(ctx, "id = 'e1'", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, vec, rows[0]["embedding"])
}

func TestPGStore_advisoryLockExcludesSecondHolder(t *testing.T) {
	s := SetupPostgres(t)
	ctx := context.Background()

	lock, err := s.TryAcquireLock(ctx)
	require.NoError(t, err)

	_, err = s.TryAcquireLock(ctx)
	assert.Error(t, err)

	require.NoError(t, lock.Release(ctx))

	lock2, err := s.TryAcquireLock(ctx)
	require.NoError(t, err)
	require.NoError(t, lock2.Release(ctx))
}
