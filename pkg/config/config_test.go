package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATA_DIR", "/var/lib/planner")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "testuser")
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("DB_NAME", "testdb")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("DELETE_POLICY_POST_CHANNEL", "nullify")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "/var/lib/planner", cfg.DataDir)
	assert.Equal(t, "db", cfg.DBHost)
	assert.Equal(t, "testuser", cfg.DBUser)
	assert.Equal(t, "testpass", cfg.DBPassword)
	assert.Equal(t, "testdb", cfg.DBName)
	assert.Equal(t, "cache", cfg.RedisHost)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, CacheBackendRedis, cfg.CacheBackend)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, "nullify", cfg.DeletePolicyPostChannel)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("RABBITMQ_HOST", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_ENDPOINT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.ServerPort)
	assert.Equal(t, StoreDriverFile, cfg.StoreDriver)
	assert.Equal(t, CacheBackendMemory, cfg.CacheBackend)
	assert.Equal(t, "orphan", cfg.DeletePolicySchedulePost)
	assert.False(t, cfg.RabbitMQEnabled())
	assert.False(t, cfg.S3Enabled())
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Run("store driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "mongo")
		_, err := Load()
		assert.ErrorContains(t, err, "STORE_DRIVER")
	})

	t.Run("cache ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "soon")
		_, err := Load()
		assert.ErrorContains(t, err, "CACHE_TTL")
	})

	t.Run("redis db", func(t *testing.T) {
		t.Setenv("REDIS_DB", "first")
		_, err := Load()
		assert.ErrorContains(t, err, "REDIS_DB")
	})
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBHost: "h", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "1", DBSSLMode: "disable"}

	assert.Equal(t, "host=h user=u password=p dbname=n port=1 sslmode=disable", cfg.PostgresDSN())
}
