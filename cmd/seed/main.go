package main

import (
	"context"
	"log"
	"time"

	"cartservice/internal/backend"
	"cartservice/internal/config"
	"cartservice/internal/seed"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	stores, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer func() { _ = stores.Close(context.Background()) }()

	if err := seed.Apply(ctx, stores.Promos, logger, time.Now().UTC()); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied")
}
