package executor

import "errors"

// ErrMigrationFailed indicates a migration body returned an error.
var ErrMigrationFailed = errors.New("migration failed")

// ErrMetadataBootstrap indicates the metadata table could not be created or opened.
var ErrMetadataBootstrap = errors.New("metadata table bootstrap failed")

// ErrMetadataWrite indicates the metadata record could not be replaced.
var ErrMetadataWrite = errors.New("metadata write failed")

// ErrEmptyBatch indicates ExecuteMigrations was called with no migrations.
var ErrEmptyBatch = errors.New("empty migration batch")

// ErrMixedBatch indicates a batch containing migrations for more than one table.
var ErrMixedBatch = errors.New("migration batch spans multiple tables")
