package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"HTTP_ADDR", "STORE_BACKEND", "REDIS_ADDR", "KAFKA_BROKERS", "ORDER_TOPIC",
		"PROMO_CACHE_TTL_SECONDS", "BREAKER_FAILURE_THRESHOLD", "LOG_DEVELOPMENT", "CORS_ALLOWED_ORIGINS",
		"DB_MAX_CONNS", "DB_MIN_CONNS",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "order.placed", cfg.OrderTopic)
	assert.Equal(t, 60*time.Second, cfg.PromoCacheTTL)
	assert.Equal(t, uint32(5), cfg.BreakerThreshold)
	assert.False(t, cfg.LogDevelopment)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Zero(t, cfg.DBMinConns)
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Mongo")
	t.Setenv("MONGO_URI", "mongodb://mongo:27017")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("ORDER_TOPIC", "orders")
	t.Setenv("PUBLISH_TIMEOUT_SECONDS", "2")
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "3")
	t.Setenv("BREAKER_OPEN_SECONDS", "not-a-number")
	t.Setenv("LOG_DEVELOPMENT", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com")
	t.Setenv("DB_MAX_CONNS", "32")
	t.Setenv("DB_MIN_CONNS", "4")

	cfg := FromEnv()
	assert.Equal(t, BackendMongo, cfg.StoreBackend)
	assert.Equal(t, "mongodb://mongo:27017", cfg.MongoURI)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "orders", cfg.OrderTopic)
	assert.Equal(t, 2*time.Second, cfg.PublishTimeout)
	assert.Equal(t, uint32(3), cfg.BreakerThreshold)
	assert.Equal(t, 30*time.Second, cfg.BreakerOpenFor)
	assert.True(t, cfg.LogDevelopment)
	assert.Equal(t, []string{"https://shop.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, int32(32), cfg.DBMaxConns)
	assert.Equal(t, int32(4), cfg.DBMinConns)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := Config{StoreBackend: BackendPostgres, DBConnString: "postgres://x", DBMaxConns: 10, KafkaBrokers: []string{"k:9092"}, OrderTopic: "t"}
	require.NoError(t, base.Validate())

	pool := base
	pool.DBMinConns = 11
	assert.Error(t, pool.Validate())

	unknown := base
	unknown.StoreBackend = "sqlite"
	assert.Error(t, unknown.Validate())

	noBrokers := base
	noBrokers.KafkaBrokers = nil
	assert.Error(t, noBrokers.Validate())

	mongo := base
	mongo.StoreBackend = BackendMongo
	assert.Error(t, mongo.Validate())
}
