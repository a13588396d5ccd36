// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is everything the services read from the environment.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	// DatabaseURL is empty when no database is configured.
	DatabaseURL string

	// RedisAddr is empty when Redis is disabled.
	RedisAddr          string
	RedisDB            int
	AnalyticsQueue     string
	RedisChannelPrefix string

	EventHandlerTimeout time.Duration
	TokenExpireTime     string
	JWTPrivateKeyPath   string
	JWTPublicKeyPath    string

	HistorianBatchSize  int
	HistorianFlushDelay time.Duration
}

// Load reads the environment. A .env file, if any, must already be loaded.
func Load() (Config, error) {
	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
		DatabaseURL:         databaseURL(),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		AnalyticsQueue:      getEnv("ANALYTICS_QUEUE_NAME", "lobby_events"),
		RedisChannelPrefix:  getEnv("REDIS_CHANNEL_PREFIX", "lobbyd:"),
		TokenExpireTime:     os.Getenv("TOKEN_EXPIRE_TIME"),
		JWTPrivateKeyPath:   os.Getenv("JWT_PRIVATE_KEY_PATH"),
		JWTPublicKeyPath:    os.Getenv("JWT_PUBLIC_KEY_PATH"),
		HistorianBatchSize:  getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlushDelay: time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
	}

	var err error
	if cfg.EventHandlerTimeout, err = getEnvDuration("EVENT_HANDLER_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if (cfg.JWTPrivateKeyPath == "") != (cfg.JWTPublicKeyPath == "") {
		return Config{}, fmt.Errorf("JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH must be set together")
	}
	if cfg.HistorianBatchSize <= 0 {
		return Config{}, fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive, got %d", cfg.HistorianBatchSize)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// databaseURL prefers DATABASE_URL and otherwise assembles one from the
// POSTGRES_* / PG_* variables when a host is given.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	host := os.Getenv("PG_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		host,
		getEnv("PG_PORT", "5432"),
		os.Getenv("PG_DATABASE"),
	)
}

// getEnv retrieves an environment variable's value or returns a default.
func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// getEnvInt parses an environment variable as an int, falling back to defVal.
func getEnvInt(key string, defVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defVal
	}
	return v
}

func getEnvDuration(key string, defVal time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return defVal, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
