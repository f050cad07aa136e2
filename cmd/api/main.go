package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cartservice/internal/backend"
	"cartservice/internal/config"
	"cartservice/internal/httpserver"
	"cartservice/internal/pricing"
	promorepo "cartservice/internal/repository/promo"
	"cartservice/internal/publisher"
	cartsvc "cartservice/internal/service/cart"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
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

	var promos pricing.PromoLookup = stores.Promos
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis not reachable, promo lookups fall through to the store", zap.Error(err))
		}
		promos = promorepo.NewCached(stores.Promos, redisClient, cfg.PromoCacheTTL, logger)
	}

	kafkaPublisher := publisher.NewKafka(cfg.KafkaBrokers, cfg.PublishTimeout, logger)
	orders := publisher.NewBreaker(kafkaPublisher, publisher.BreakerSettings{
		FailureThreshold: cfg.BreakerThreshold,
		OpenFor:          cfg.BreakerOpenFor,
	}, logger)

	cartService := cartsvc.New(stores.Carts, promos, orders, cartsvc.Config{OrderTopic: cfg.OrderTopic}, logger)

	srv := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Carts:          cartService,
		Store:          stores.Carts,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
	if err := kafkaPublisher.Close(); err != nil {
		logger.Warn("close kafka writer", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := stores.Close(ctx); err != nil {
		logger.Warn("close store", zap.Error(err))
	}
}
