package promo

import (
	"context"
	"errors"
	"testing"
	"time"

	"cartservice/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLookup struct {
	promos map[string]domain.PromoCode
	err    error
	calls  int
}

func (s *stubLookup) FindActiveUnexpired(_ context.Context, code string) (*domain.PromoCode, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.promos[code]
	if !ok {
		return nil, domain.ErrPromoNotFound
	}
	return &p, nil
}

// ctxLookup fails the way a driver does once its context is done.
type ctxLookup struct {
	promo       domain.PromoCode
	hadDeadline bool
}

func (s *ctxLookup) FindActiveUnexpired(ctx context.Context, _ string) (*domain.PromoCode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, s.hadDeadline = ctx.Deadline()
	p := s.promo
	return &p, nil
}

func setupCache(t *testing.T, next Lookup) (*Cached, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCached(next, client, time.Minute, zap.NewNop()), mr
}

func tenPercent() domain.PromoCode {
	return domain.PromoCode{
		ID:            "id-1",
		Code:          "TEN",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		Active:        true,
	}
}

func TestCachedServesHitsFromRedis(t *testing.T) {
	next := &stubLookup{promos: map[string]domain.PromoCode{"TEN": tenPercent()}}
	cache, mr := setupCache(t, next)
	ctx := context.Background()

	first, err := cache.FindActiveUnexpired(ctx, "ten")
	require.NoError(t, err)
	assert.Equal(t, "TEN", first.Code)
	assert.True(t, mr.Exists("promo:TEN"))

	second, err := cache.FindActiveUnexpired(ctx, "TEN")
	require.NoError(t, err)
	assert.True(t, second.DiscountValue.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 1, next.calls, "second lookup should be served from redis")
}

func TestCachedDoesNotCacheMisses(t *testing.T) {
	next := &stubLookup{promos: map[string]domain.PromoCode{}}
	cache, mr := setupCache(t, next)

	_, err := cache.FindActiveUnexpired(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrPromoNotFound)
	assert.False(t, mr.Exists("promo:NOPE"))

	_, err = cache.FindActiveUnexpired(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrPromoNotFound)
	assert.Equal(t, 2, next.calls)
}

func TestCachedRechecksExpiry(t *testing.T) {
	expiry := time.Now().Add(30 * time.Minute)
	promo := tenPercent()
	promo.ExpiryDate = &expiry
	next := &stubLookup{promos: map[string]domain.PromoCode{"TEN": promo}}
	cache, mr := setupCache(t, next)
	ctx := context.Background()

	_, err := cache.FindActiveUnexpired(ctx, "TEN")
	require.NoError(t, err)
	require.True(t, mr.Exists("promo:TEN"))

	cache.now = func() time.Time { return expiry.Add(time.Second) }
	_, err = cache.FindActiveUnexpired(ctx, "TEN")
	assert.ErrorIs(t, err, domain.ErrPromoNotFound)
	assert.False(t, mr.Exists("promo:TEN"), "stale entry should be evicted")
}

func TestCachedTTLNeverOutlivesExpiry(t *testing.T) {
	expiry := time.Now().Add(10 * time.Second)
	promo := tenPercent()
	promo.ExpiryDate = &expiry
	next := &stubLookup{promos: map[string]domain.PromoCode{"TEN": promo}}
	cache, mr := setupCache(t, next)

	_, err := cache.FindActiveUnexpired(context.Background(), "TEN")
	require.NoError(t, err)
	ttl := mr.TTL("promo:TEN")
	assert.True(t, ttl > 0 && ttl <= 10*time.Second, "ttl %s", ttl)
}

func TestCachedFallsBackWhenRedisIsDown(t *testing.T) {
	next := &stubLookup{promos: map[string]domain.PromoCode{"TEN": tenPercent()}}
	cache, mr := setupCache(t, next)
	mr.Close()

	got, err := cache.FindActiveUnexpired(context.Background(), "TEN")
	require.NoError(t, err)
	assert.Equal(t, "TEN", got.Code)
}

func TestCachedPropagatesLookupErrors(t *testing.T) {
	next := &stubLookup{err: errors.New("db down")}
	cache, _ := setupCache(t, next)

	_, err := cache.FindActiveUnexpired(context.Background(), "TEN")
	assert.EqualError(t, err, "db down")
}

func TestInvalidate(t *testing.T) {
	next := &stubLookup{promos: map[string]domain.PromoCode{"TEN": tenPercent()}}
	cache, mr := setupCache(t, next)
	ctx := context.Background()

	_, err := cache.FindActiveUnexpired(ctx, "TEN")
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, "ten"))
	assert.False(t, mr.Exists("promo:TEN"))
}

func TestValidate(t *testing.T) {
	good := tenPercent()
	require.NoError(t, validate(good))

	bad := good
	bad.Code = " "
	assert.Error(t, validate(bad))

	bad = good
	bad.DiscountType = "BOGO"
	assert.Error(t, validate(bad))

	bad = good
	bad.DiscountValue = decimal.Zero
	assert.Error(t, validate(bad))
}

func TestCachedLoadSurvivesCallerCancellation(t *testing.T) {
	next := &ctxLookup{promo: tenPercent()}
	cache, mr := setupCache(t, next)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	promo, err := cache.FindActiveUnexpired(ctx, "TEN")
	require.NoError(t, err)
	assert.Equal(t, "TEN", promo.Code)
	assert.True(t, next.hadDeadline, "shared load should run under its own timeout")
	assert.True(t, mr.Exists("promo:TEN"))
}
