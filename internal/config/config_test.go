package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RATE_LIMIT_WINDOW", "")
	t.Setenv("RATE_LIMIT_MAX", "")
	t.Setenv("LLM_PROVIDER", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 5, cfg.RateLimit.MaxRequests)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 24*time.Hour, cfg.TokenExpiration)
}

func TestLoadConfigRequiresDatabaseURLForPostgres(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := LoadConfig()
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfigRateLimitOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RATE_LIMIT_WINDOW", "30000")
	t.Setenv("RATE_LIMIT_MAX", "10")
	t.Setenv("RATE_LIMIT_SWEEP_INTERVAL", "2m")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.SweepInterval)
}

func TestLoadConfigRejectsRedisWithoutURL(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RATE_LIMIT_BACKEND", "redis")
	t.Setenv("REDIS_URL", "")

	_, err := LoadConfig()
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfigRejectsBadNumbers(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RATE_LIMIT_MAX", "five")

	_, err := LoadConfig()
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}
