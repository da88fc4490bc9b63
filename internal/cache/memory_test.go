package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestMemoryProviderExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	provider, err := NewMemoryProvider(clock.Now)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, provider.Set(ctx, "token", "abc", 23*time.Hour))

	clock.Advance(22 * time.Hour)
	got, err := provider.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	clock.Advance(time.Hour)
	_, err = provider.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryProviderDelete(t *testing.T) {
	provider, err := NewMemoryProvider(nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, provider.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, provider.Delete(ctx, "k"))

	_, err = provider.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, provider.Close())
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryProvider{}, p)

	_, err = NewProvider(Config{Provider: "memcached"})
	assert.Error(t, err)

	_, err = NewProvider(Config{Provider: "redis", RedisConnectionString: "not a url"})
	assert.Error(t, err)
}
