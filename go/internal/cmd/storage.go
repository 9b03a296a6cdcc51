package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/nexora/go/internal/config"
	"github.com/mcdev12/nexora/go/internal/dbconfig"
	"github.com/mcdev12/nexora/go/internal/kvstore"
)

// openStore opens the configured backend and scopes it to the configured namespace.
func openStore(ctx context.Context, cfg config.StorageConfig, dsn string, clock clockwork.Clock) (kvstore.WatchableStore, error) {
	var (
		store kvstore.WatchableStore
		err   error
	)
	opts := []kvstore.Option{kvstore.WithClock(clock)}

	switch cfg.Driver {
	case config.DriverMemory:
		store = kvstore.NewMemory(opts...)
	case config.DriverFile:
		store, err = kvstore.OpenFile(cfg.Path, opts...)
	case config.DriverSQLite, config.DriverPostgres, config.DriverPgx:
		store, err = kvstore.OpenSQL(ctx, cfg.Driver, dsn, opts...)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)
	}

	ev := log.Info().Str("driver", cfg.Driver).Str("namespace", cfg.Namespace)
	switch cfg.Driver {
	case config.DriverFile, config.DriverSQLite:
		ev = ev.Str("path", cfg.Path)
	case config.DriverPostgres, config.DriverPgx:
		ev = ev.Str("dsn", redact(dsn))
	}
	ev.Msg("store opened")

	return kvstore.WithNamespace(store, cfg.Namespace), nil
}

// redact hides the password of a DSN built from the DB_* environment.
func redact(dsn string) string {
	if env := dbconfig.NewConfigFromEnv(); env.DSN() == dsn {
		return env.Redacted()
	}
	return "(configured)"
}
