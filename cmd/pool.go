package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-sync/internal/platform"
)

// openPool creates a pgxpool.Pool from the configured database URL.
func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	dsn := cfg.Store.DatabaseURL
	if dsn == "" {
		return nil, eris.New("no database_url configured (set store.database_url or OUTREACH_STORE_DATABASE_URL)")
	}

	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "parse database_url")
	}
	if cfg.Store.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.Store.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, eris.Wrap(err, "create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "ping database")
	}

	return pool, nil
}

// platformEndpoints builds the resume client's endpoint table from config.
func platformEndpoints() map[string]platform.Endpoint {
	endpoints := make(map[string]platform.Endpoint, len(cfg.Platforms))
	for name, pc := range cfg.Platforms {
		endpoints[name] = platform.Endpoint{BaseURL: pc.BaseURL, ServiceToken: pc.ServiceToken}
	}
	return endpoints
}
