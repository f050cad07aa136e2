// Package backend opens the cart and promo stores selected by configuration.
package backend

import (
	"context"
	"fmt"

	"cartservice/internal/config"
	"cartservice/internal/db"
	cartrepo "cartservice/internal/repository/cart"
	promorepo "cartservice/internal/repository/promo"
	"go.uber.org/zap"
)

type Stores struct {
	Carts  cartrepo.Repository
	Promos promorepo.Repository
	close  func(ctx context.Context) error
}

// Close releases the underlying connection pool.
func (s *Stores) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the configured backend. Postgres schema changes are left
// to cmd/migrate; Mongo indexes are created here.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Stores, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := db.Connect(ctx, cfg.DBConnString, db.PoolConfig{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres store")
		return &Stores{
			Carts:  cartrepo.NewPostgres(pool, logger),
			Promos: promorepo.NewPostgres(pool, logger),
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil
	case config.BackendMongo:
		database, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		disconnect := func(ctx context.Context) error { return database.Client().Disconnect(ctx) }
		if err := cartrepo.EnsureIndexes(ctx, database); err != nil {
			_ = disconnect(ctx)
			return nil, fmt.Errorf("cart indexes: %w", err)
		}
		if err := promorepo.EnsureIndexes(ctx, database); err != nil {
			_ = disconnect(ctx)
			return nil, fmt.Errorf("promo indexes: %w", err)
		}
		logger.Info("using mongo store", zap.String("database", cfg.MongoDatabase))
		return &Stores{
			Carts:  cartrepo.NewMongo(database, logger),
			Promos: promorepo.NewMongo(database, logger),
			close:  disconnect,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
