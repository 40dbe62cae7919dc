package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hostel")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 24, cfg.JWTTTLHours)
	require.Equal(t, 60*time.Second, cfg.CacheTTL)
	require.Equal(t, "booking.exchange", cfg.Exchange)
	require.Equal(t, 3, cfg.MaxRetries)
	require.Equal(t, 2*time.Second, cfg.LockTimeout)
	require.Equal(t, 100, cfg.CompleteBatchSize)
	require.Empty(t, cfg.RedisAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hostel")
	t.Setenv("BOOKING_LOCK_TIMEOUT", "500ms")
	t.Setenv("BOOKING_MAX_RETRIES", "5")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 500*time.Millisecond, cfg.LockTimeout)
	require.Equal(t, 5, cfg.MaxRetries)
	require.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://localhost/hostel")
	t.Setenv("APP_ENV", "prod")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("APP_ENV", "dev")
	t.Setenv("BOOKING_MAX_RETRIES", "-1")
	_, err = Load()
	require.Error(t, err)
}
