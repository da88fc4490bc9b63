package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisProvider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	provider, err := NewRedisProvider("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Close() })
	return provider, mr
}

func TestRedisProviderRoundTripAndExpiry(t *testing.T) {
	provider, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, provider.Set(ctx, "carrier:token", "abc", 23*time.Hour))
	assert.True(t, mr.Exists(redisKeyPrefix+"carrier:token"))

	got, err := provider.Get(ctx, "carrier:token")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	mr.FastForward(23 * time.Hour)
	_, err = provider.Get(ctx, "carrier:token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisProviderDeleteAndNonPositiveTTL(t *testing.T) {
	provider, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, provider.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, provider.Delete(ctx, "k"))
	_, err := provider.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, provider.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, provider.Set(ctx, "k", "v2", 0))
	assert.False(t, mr.Exists(redisKeyPrefix+"k"))
}

func TestNewProviderRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	p, err := NewProvider(Config{Provider: "redis", RedisConnectionString: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	assert.IsType(t, &RedisProvider{}, p)

	mr.Close()
	_, err = NewRedisProvider("redis://" + mr.Addr())
	assert.Error(t, err)
}
