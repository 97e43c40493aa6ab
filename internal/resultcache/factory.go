// File: internal/resultcache/factory.go
package resultcache

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/config"
)

// FromConfig builds the configured store backend. The returned cleanup
// function releases backend resources (the postgres pool); it is a no-op
// for the other backends.
func FromConfig(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (schemas.ResultStore, func(), error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(logger), func() {}, nil

	case "file":
		store, err := NewFileStore(cfg.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect cache database: %w", err)
		}
		store := NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
