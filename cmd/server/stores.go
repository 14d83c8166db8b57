package main

import (
	"context"
	"fmt"
	"log"

	"contract-risk-lab/internal/analysis"
	"contract-risk-lab/internal/storage"
	chstore "contract-risk-lab/internal/storage/clickhouse"
	"contract-risk-lab/internal/storage/memory"
	"contract-risk-lab/internal/storage/migrations"
	pgstore "contract-risk-lab/internal/storage/postgres"
	redisstore "contract-risk-lab/internal/storage/redis"
)

// storeConfig selects the persistence backends.
type storeConfig struct {
	postgresDSN      string
	postgresMaxConns int32
	clickhouseDSN    string
	redisAddr        string
	redisPassword    string
	redisDB          int
	useMemory        bool
	migrate          bool
}

// backend names the configured persistence for /status.
func (c storeConfig) backend() string {
	if c.useMemory {
		return "memory"
	}
	if c.redisAddr != "" {
		return "postgres+clickhouse+redis"
	}
	return "postgres+clickhouse"
}

// openStores creates all stores. The returned cleanup closes every connection.
func openStores(ctx context.Context, cfg storeConfig, logger *log.Logger) (analysis.Stores, func(), error) {
	if cfg.useMemory {
		projects := memory.NewProjectStore()
		stores := analysis.Stores{
			Projects:     projects,
			Contracts:    memory.NewContractAnalysisStore(projects),
			Creators:     memory.NewCreatorAnalysisStore(),
			Interactions: memory.NewInteractionAnalysisStore(),
			Edges:        memory.NewEdgeStore(),
			Scores:       memory.NewScoreHistoryStore(),
			Cache:        memory.NewCache(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.postgresDSN, pgstore.WithMaxConns(cfg.postgresMaxConns))
	if err != nil {
		return analysis.Stores{}, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// ClickHouse
	if cfg.migrate {
		if err := chstore.EnsureDatabase(ctx, cfg.clickhouseDSN); err != nil {
			pool.Close()
			return analysis.Stores{}, nil, err
		}
	}
	chConn, err := chstore.NewConn(ctx, cfg.clickhouseDSN)
	if err != nil {
		pool.Close()
		return analysis.Stores{}, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	closers := []func(){
		func() { chConn.Close() },
		pool.Close,
	}
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.migrate {
		if err := migrations.ApplyPostgres(ctx, pool); err != nil {
			cleanup()
			return analysis.Stores{}, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		if err := migrations.ApplyClickhouse(ctx, chConn); err != nil {
			cleanup()
			return analysis.Stores{}, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		logger.Println("Migrations applied")
	}

	// Redis is optional; without it the freshness cache lives in process
	// and the stored analyses still serve as the second tier.
	var cache storage.Cache = memory.NewCache()
	if cfg.redisAddr != "" {
		rc, err := redisstore.NewCache(ctx, redisstore.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
			Prefix:   "risklab:",
		})
		if err != nil {
			cleanup()
			return analysis.Stores{}, nil, fmt.Errorf("connect to redis: %w", err)
		}
		closers = append(closers, func() { rc.Close() })
		cache = rc
	}

	stores := analysis.Stores{
		// PostgreSQL stores (projects and full analyses)
		Projects:     pgstore.NewProjectStore(pool),
		Contracts:    pgstore.NewContractAnalysisStore(pool),
		Creators:     pgstore.NewCreatorAnalysisStore(pool),
		Interactions: pgstore.NewInteractionAnalysisStore(pool),

		// ClickHouse stores (analytics)
		Edges:  chstore.NewEdgeStore(chConn),
		Scores: chstore.NewScoreHistoryStore(chConn),

		Cache: cache,
	}

	return stores, cleanup, nil
}
