package carrier

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"orderbackend/internal/cache"
)

const tokenCacheKey = "carrier:token"

// TokenCache keeps the carrier bearer token for a freshness window shorter than the
// carrier's own expiry. Concurrent refreshes are last-writer-wins.
type TokenCache struct {
	provider cache.Provider
	ttl      time.Duration
	logger   *slog.Logger
}

func NewTokenCache(provider cache.Provider, ttl time.Duration, logger *slog.Logger) *TokenCache {
	return &TokenCache{provider: provider, ttl: ttl, logger: logger}
}

func (t *TokenCache) Get(ctx context.Context) (string, bool) {
	token, err := t.provider.Get(ctx, tokenCacheKey)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			t.logger.Warn("carrier token cache read failed", "error", err)
		}
		return "", false
	}
	return token, token != ""
}

func (t *TokenCache) Put(ctx context.Context, token string) {
	if err := t.provider.Set(ctx, tokenCacheKey, token, t.ttl); err != nil {
		t.logger.Warn("carrier token cache write failed", "error", err)
	}
}

func (t *TokenCache) Invalidate(ctx context.Context) {
	if err := t.provider.Delete(ctx, tokenCacheKey); err != nil {
		t.logger.Warn("carrier token cache delete failed", "error", err)
	}
}
