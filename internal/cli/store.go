package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mkoval/tablestore-migrate/internal/config"
	"github.com/mkoval/tablestore-migrate/internal/store"
	"github.com/mkoval/tablestore-migrate/internal/store/pgstore"
	"github.com/mkoval/tablestore-migrate/internal/store/sqlite"
)

// errDatabaseURLRequired is returned when the postgres backend has no URL configured.
var errDatabaseURLRequired = errors.New(
	"database URL is required (set --database-url, TSMIGRATE_DATABASE_URL, or database_url in config)",
)

// storeHandle bundles an open store with its cleanup and, for backends that
// support it, a function serializing orchestrator runs.
type storeHandle struct {
	store store.Store
	close func()
	lock  func(ctx context.Context) (*pgstore.LockHandle, error)
}

// openStore opens the configured backend.
func openStore(ctx context.Context, cfg *config.Config, out io.Writer) (*storeHandle, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}

		return &storeHandle{
			store: s,
			close: func() { _ = s.Close() },
		}, nil

	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errDatabaseURLRequired
		}

		fmt.Fprintf(out, "Connecting to %s\n", config.RedactURL(cfg.DatabaseURL))

		s, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}

		return &storeHandle{
			store: s,
			close: s.Close,
			lock:  s.TryAcquireLock,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
}
