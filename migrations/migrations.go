// Package migrations is the application's compiled-in migration catalog.
// Migrations are appended here with a per-table version one higher than the
// previous entry for that table; versions are never reused or reordered.
package migrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkoval/tablestore-migrate/internal/registry"
	"github.com/mkoval/tablestore-migrate/internal/store"
)

// embeddingDim is the dimensionality of memo content embeddings.
const embeddingDim = 768

// Catalog returns the full migration catalog.
func Catalog() []registry.Migration {
	return []registry.Migration{
		{
			Version:     1,
			TableName:   "memos",
			Description: "create memos table",
			Up:          createMemos,
		},
		{
			Version:     2,
			TableName:   "memos",
			Description: "normalize empty row status to NORMAL",
			Up:          normalizeMemoRowStatus,
		},
		{
			Version:     1,
			TableName:   "attachments",
			Description: "create attachments table",
			Up:          createAttachments,
		},
		{
			Version:     1,
			TableName:   "memo_embeddings",
			Description: "create memo embeddings table",
			Up:          createMemoEmbeddings,
		},
	}
}

// createTable creates a table, tolerating one that already exists: a re-run
// after a degraded metadata read must converge, not fail.
func createTable(ctx context.Context, st store.Store, name string, schema store.Schema) error {
	_, err := st.CreateTable(ctx, name, schema)
	if err != nil && !errors.Is(err, store.ErrTableExists) {
		return fmt.Errorf("creating %s: %w", name, err)
	}

	return nil
}

func createMemos(ctx context.Context, st store.Store) error {
	return createTable(ctx, st, "memos", store.Schema{Fields: []store.Field{
		{Name: "id", Type: store.TypeString},
		{Name: "creator", Type: store.TypeString},
		{Name: "content", Type: store.TypeString},
		{Name: "row_status", Type: store.TypeString},
		{Name: "created_at", Type: store.TypeInt64},
		{Name: "updated_at", Type: store.TypeInt64},
	}})
}

func normalizeMemoRowStatus(ctx context.Context, st store.Store) error {
	t, err := st.OpenTable(ctx, "memos")
	if err != nil {
		return fmt.Errorf("opening memos: %w", err)
	}

	rows, err := t.Query(ctx, "row_status = ''", 0)
	if err != nil {
		return fmt.Errorf("querying memos with empty row status: %w", err)
	}

	if len(rows) == 0 {
		return nil
	}

	for _, r := range rows {
		r["row_status"] = "NORMAL"
	}

	if err := t.Delete(ctx, "row_status = ''"); err != nil {
		return fmt.Errorf("deleting memos with empty row status: %w", err)
	}

	if err := t.Insert(ctx, rows); err != nil {
		return fmt.Errorf("reinserting normalized memos: %w", err)
	}

	return nil
}

func createAttachments(ctx context.Context, st store.Store) error {
	return createTable(ctx, st, "attachments", store.Schema{Fields: []store.Field{
		{Name: "id", Type: store.TypeString},
		{Name: "memo_id", Type: store.TypeString},
		{Name: "filename", Type: store.TypeString},
		{Name: "content_type", Type: store.TypeString},
		{Name: "size", Type: store.TypeInt64},
		{Name: "created_at", Type: store.TypeInt64},
	}})
}

func createMemoEmbeddings(ctx context.Context, st store.Store) error {
	return createTable(ctx, st, "memo_embeddings", store.Schema{Fields: []store.Field{
		{Name: "id", Type: store.TypeString},
		{Name: "memo_id", Type: store.TypeString},
		{Name: "embedding", Type: store.TypeVector, Dim: embeddingDim},
		{Name: "created_at", Type: store.TypeInt64},
	}})
}
