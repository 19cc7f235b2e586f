package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/guiaurbana/geocore/internal/store"
)

// openStore builds the configured Store backend. SQLite is the default;
// postgres is used when the guide shares the rendering app's database.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store: database_url is required for the postgres driver")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Store.Driver)
	}
}
