package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLimiter(NewRedisStore(client), DefaultWindow, DefaultMax), mr
}

func TestRedisStoreFixedWindow(t *testing.T) {
	l, mr := newRedisLimiter(t)
	ctx := context.Background()

	for i := 1; i <= DefaultMax; i++ {
		d, err := l.Allow(ctx, "token")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, i, d.Count)
	}

	d, err := l.Allow(ctx, "token")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, DefaultMax, d.Count)

	// Rejections leave the counter alone.
	v, err := mr.Get("rate_limit:token")
	require.NoError(t, err)
	assert.Equal(t, "5", v)

	mr.FastForward(DefaultWindow)

	d, err = l.Allow(ctx, "token")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Count)
}

func TestRedisStoreArmsExpiryOnFirstHit(t *testing.T) {
	l, mr := newRedisLimiter(t)

	_, err := l.Allow(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, DefaultWindow, mr.TTL("rate_limit:token"))

	mr.FastForward(10 * time.Second)
	_, err = l.Allow(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, 50*time.Second, mr.TTL("rate_limit:token"))
}
