package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoval/tablestore-migrate/internal/store"
)

func TestValidIdentifier(t *testing.T) {
	t.Parallel()

	valid := []string{"memos", "table_name", "_hidden", "V2", "a1_b2"}
	for _, name := range valid {
		assert.True(t, store.ValidIdentifier(name), name)
	}

	invalid := []string{"", "1abc", "a-b", "a b", "a;b", "memos'", "a.b"}
	for _, name := range invalid {
		assert.False(t, store.ValidIdentifier(name), name)
	}
}

func TestSchemaValidate_ok(t *testing.T) {
	t.Parallel()

	s := store.Schema{Fields: []store.Field{
		{Name: "id", Type: store.TypeString},
		{Name: "size", Type: store.TypeInt64},
		{Name: "score", Type: store.TypeFloat64},
		{Name: "embedding", Type: store.TypeVector, Dim: 768},
	}}

	require.NoError(t, s.Validate())
	assert.Equal(t, []string{"id", "size", "score", "embedding"}, s.FieldNames())
}

func TestSchemaValidate_errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		schema  store.Schema
		wantErr error
	}{
		{
			name:    "empty",
			schema:  store.Schema{},
			wantErr: store.ErrEmptySchema,
		},
		{
			name: "bad field name",
			schema: store.Schema{Fields: []store.Field{
				{Name: "not a name", Type: store.TypeString},
			}},
			wantErr: store.ErrInvalidIdentifier,
		},
		{
			name: "duplicate field",
			schema: store.Schema{Fields: []store.Field{
				{Name: "id", Type: store.TypeString},
				{Name: "id", Type: store.TypeInt64},
			}},
			wantErr: store.ErrDuplicateField,
		},
		{
			name: "vector without dimension",
			schema: store.Schema{Fields: []store.Field{
				{Name: "embedding", Type: store.TypeVector},
			}},
			wantErr: store.ErrInvalidVectorDim,
		},
		{
			name: "unknown type",
			schema: store.Schema{Fields: []store.Field{
				{Name: "flag", Type: store.FieldType("bool")},
			}},
			wantErr: store.ErrUnknownFieldType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.ErrorIs(t, tt.schema.Validate(), tt.wantErr)
		})
	}
}

func TestEq_escapesQuotes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "table_name = 'memos'", store.Eq("table_name", "memos"))
	assert.Equal(t, "name = 'o''brien'", store.Eq("name", "o'brien"))
	assert.Equal(t, "name = ''", store.Eq("name", ""))
}
