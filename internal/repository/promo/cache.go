package promo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cartservice/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cached fronts a Lookup with Redis. Only hits are cached, so a revoked code
// keeps applying for at most ttl; expiry is re-checked on every read.
type Cached struct {
	next   Lookup
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
	sfg    singleflight.Group

	loadTimeout time.Duration
}

// DefaultLoadTimeout bounds a shared load once it is detached from its caller.
const DefaultLoadTimeout = 5 * time.Second

func NewCached(next Lookup, client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cached {
	return &Cached{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,

		loadTimeout: DefaultLoadTimeout,
	}
}

func (c *Cached) FindActiveUnexpired(ctx context.Context, code string) (*domain.PromoCode, error) {
	code = domain.NormalizeCode(code)

	// The load is shared by every waiter, so one caller going away must not
	// fail the rest.
	v, err, _ := c.sfg.Do(code, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		promo, err := c.get(ctx, code)
		if err == nil {
			return promo, nil
		}
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("promo cache get failed", zap.String("code", code), zap.Error(err))
		}

		promo, err = c.next.FindActiveUnexpired(ctx, code)
		if err != nil {
			return nil, err
		}
		if err := c.set(ctx, code, promo); err != nil {
			c.logger.Warn("promo cache set failed", zap.String("code", code), zap.Error(err))
		}
		return promo, nil
	})
	if err != nil {
		return nil, err
	}

	promo := *v.(*domain.PromoCode)
	if !promo.Usable(c.now()) {
		c.invalidate(code)
		return nil, domain.ErrPromoNotFound
	}
	return &promo, nil
}

// Invalidate drops a cached code, e.g. after it was revoked.
func (c *Cached) Invalidate(ctx context.Context, code string) error {
	if err := c.client.Del(ctx, cacheKey(domain.NormalizeCode(code))).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *Cached) get(ctx context.Context, code string) (*domain.PromoCode, error) {
	data, err := c.client.Get(ctx, cacheKey(code)).Bytes()
	if err != nil {
		return nil, err
	}
	var promo domain.PromoCode
	if err := json.Unmarshal(data, &promo); err != nil {
		return nil, fmt.Errorf("unmarshal promo code failed: %w", err)
	}
	return &promo, nil
}

func (c *Cached) set(ctx context.Context, code string, promo *domain.PromoCode) error {
	data, err := json.Marshal(promo)
	if err != nil {
		return fmt.Errorf("marshal promo code failed: %w", err)
	}
	ttl := c.ttl
	if promo.ExpiryDate != nil {
		if left := promo.ExpiryDate.Sub(c.now()); left < ttl {
			ttl = left
		}
	}
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, cacheKey(code), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *Cached) invalidate(code string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Invalidate(ctx, code); err != nil {
		c.logger.Warn("promo cache invalidate failed", zap.String("code", code), zap.Error(err))
	}
}

func cacheKey(code string) string {
	return fmt.Sprintf("promo:%s", code)
}
