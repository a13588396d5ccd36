// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "LOG_LEVEL", "LOG_FORMAT", "DATABASE_URL", "PG_HOST", "PG_PORT", "PG_DATABASE",
		"POSTGRES_USER", "POSTGRES_PASSWORD", "REDIS_ADDR", "REDIS_DB", "ANALYTICS_QUEUE_NAME",
		"REDIS_CHANNEL_PREFIX", "EVENT_HANDLER_TIMEOUT", "TOKEN_EXPIRE_TIME",
		"JWT_PRIVATE_KEY_PATH", "JWT_PUBLIC_KEY_PATH", "HISTORIAN_BATCH_SIZE", "HISTORIAN_FLUSH_MS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "lobby_events", cfg.AnalyticsQueue)
	assert.Equal(t, "lobbyd:", cfg.RedisChannelPrefix)
	assert.Equal(t, 5*time.Second, cfg.EventHandlerTimeout)
	assert.Equal(t, 20, cfg.HistorianBatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.HistorianFlushDelay)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("PG_HOST", "db")
	t.Setenv("POSTGRES_USER", "lobby")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("PG_DATABASE", "lobbyd")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("EVENT_HANDLER_TIMEOUT", "250ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, "postgres://lobby:secret@db:5432/lobbyd", cfg.DatabaseURL)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 250*time.Millisecond, cfg.EventHandlerTimeout)

	t.Setenv("DATABASE_URL", "postgres://override/db")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://override/db", cfg.DatabaseURL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("EVENT_HANDLER_TIMEOUT", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "EVENT_HANDLER_TIMEOUT")

	clearEnv(t)
	t.Setenv("JWT_PRIVATE_KEY_PATH", "/keys/private")
	_, err = Load()
	assert.Error(t, err)
}
