// Package pg bootstraps the PostgreSQL side of the system: connection pool
// setup with startup retries, goose schema migrations, and a healthcheck
// probe for readiness endpoints.
//
//	cfg, _ := env.ParseAs[pg.Config]()
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, logger); err != nil {
//	    return err
//	}
//
// The error helpers (IsNotFoundError, IsDuplicateKeyError) let store
// implementations translate driver errors into domain sentinels without
// importing pgx themselves.
package pg
