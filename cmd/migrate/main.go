package main

import (
	"context"
	"log"

	"cartservice/internal/config"
	"cartservice/internal/db"
	"cartservice/internal/migrate"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.StoreBackend != config.BackendPostgres {
		logger.Info("nothing to migrate", zap.String("backend", cfg.StoreBackend))
		return
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, db.PoolConfig{MaxConns: 1})
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, logger); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	logger.Info("migrations applied")
}
