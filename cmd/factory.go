package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sea-cdm/OSEAN-KG/internal/config"
	"github.com/sea-cdm/OSEAN-KG/internal/graphstore"
	"go.uber.org/zap"
)

// newStore builds the graph store backend selected by the configuration.
// The caller owns the returned store and must Close it.
func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (graphstore.Store, error) {
	switch cfg.Graph.Backend {
	case config.BackendNeo4j:
		store, err := graphstore.NewNeo4jStore(ctx, cfg.Neo4j, logger)
		if err != nil {
			return nil, fmt.Errorf("initializing neo4j backend: %w", err)
		}
		return store, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("creating postgres connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("pinging postgres: %w", err)
		}
		return graphstore.NewPostgresStore(pool, logger), nil

	case config.BackendMemory:
		return graphstore.NewMemoryStore(logger), nil

	default:
		return nil, fmt.Errorf("unknown graph backend %q", cfg.Graph.Backend)
	}
}
