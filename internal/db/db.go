package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig sizes the pool behind the cart and promo stores. Zero values
// keep the defaults below.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

const (
	defaultMaxConns        = 10
	cartConnIdleTime       = 5 * time.Minute
	cartConnLifetime       = 30 * time.Minute
	cartHealthCheckPeriod  = 30 * time.Second
	cartStatementCacheSize = 64
)

// Connect opens a pgx pool for the cart and promo tables and verifies
// connectivity with a ping.
func Connect(ctx context.Context, dsn string, pc PoolConfig) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(dsn, pc)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

func poolConfig(dsn string, pc PoolConfig) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConns = defaultMaxConns
	if pc.MaxConns > 0 {
		cfg.MaxConns = pc.MaxConns
	}
	if pc.MinConns > 0 {
		cfg.MinConns = min(pc.MinConns, cfg.MaxConns)
	}
	cfg.MaxConnIdleTime = cartConnIdleTime
	cfg.MaxConnLifetime = cartConnLifetime
	cfg.HealthCheckPeriod = cartHealthCheckPeriod
	// Every cart write runs the same handful of statements.
	cfg.ConnConfig.StatementCacheCapacity = cartStatementCacheSize
	return cfg, nil
}
