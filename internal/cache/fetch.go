package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/nikhilbhutani/newscast/internal/metrics"
)

// Fetcher is the page-fetching capability being cached.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// CachedFetcher serves repeated fetches of the same URL from Redis. Only
// successful fetches are stored; a Redis failure degrades to a direct fetch.
type CachedFetcher struct {
	next  Fetcher
	cache *Cache
	ttl   time.Duration
}

func NewCachedFetcher(next Fetcher, cache *Cache, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{next: next, cache: cache, ttl: ttl}
}

func fetchKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "fetch:" + hex.EncodeToString(sum[:])
}

func (f *CachedFetcher) Fetch(ctx context.Context, url string) (string, error) {
	key := fetchKey(url)

	var body string
	err := f.cache.Get(ctx, key, &body)
	switch {
	case err == nil:
		metrics.RecordCacheLookup(true)
		return body, nil
	case !errors.Is(err, ErrMiss):
		slog.Warn("fetch cache read failed", "url", url, "error", err)
	}
	metrics.RecordCacheLookup(false)

	body, err = f.next.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	if err := f.cache.Set(ctx, key, body, f.ttl); err != nil {
		slog.Warn("fetch cache write failed", "url", url, "error", err)
	}
	return body, nil
}
