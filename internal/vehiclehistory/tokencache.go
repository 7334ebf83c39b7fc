// AngelaMos | 2026
// tokencache.go

package vehiclehistory

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// TokenSource performs one outbound credential acquisition and reports the
// granted token with its authority-provided lifetime.
type TokenSource interface {
	Acquire(ctx context.Context) (token string, ttl time.Duration, err error)
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// TokenCache is the process-wide cache for the machine-to-machine bearer
// token. The cached value sits in an atomic pointer so the hit path never
// takes a lock; the miss path funnels through a capacity-1 gate so at most
// one acquisition is in flight regardless of how many callers race.
//
// It is plain injected state, not a package global, so tests can substitute
// the source and the clock.
type TokenCache struct {
	source TokenSource
	buffer time.Duration
	now    func() time.Time

	cached atomic.Pointer[cachedToken]
	gate   chan struct{}
}

type CacheOption func(*TokenCache)

func WithClock(now func() time.Time) CacheOption {
	return func(c *TokenCache) {
		c.now = now
	}
}

// NewTokenCache builds an empty cache. buffer is subtracted from every
// authority-granted lifetime so a token is refreshed before it can expire
// mid-request downstream.
func NewTokenCache(
	source TokenSource,
	buffer time.Duration,
	opts ...CacheOption,
) *TokenCache {
	c := &TokenCache{
		source: source,
		buffer: buffer,
		now:    time.Now,
		gate:   make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetToken returns a bearer token that is valid at the time of return.
//
// Double-checked: an unguarded read first, then a re-check under the gate,
// because another caller may have refreshed the cache while this one waited.
// A failed acquisition is propagated and never cached. Cancellation while
// waiting for the gate returns immediately; cancellation while holding it
// still releases the gate on the way out.
func (c *TokenCache) GetToken(ctx context.Context) (string, error) {
	if tok := c.cached.Load(); tok != nil && c.now().Before(tok.expiresAt) {
		return tok.value, nil
	}

	select {
	case c.gate <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-c.gate }()

	if tok := c.cached.Load(); tok != nil && c.now().Before(tok.expiresAt) {
		return tok.value, nil
	}

	value, ttl, err := c.source.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire bearer token: %w", err)
	}

	fresh := &cachedToken{
		value:     value,
		expiresAt: c.now().Add(ttl - c.buffer),
	}
	c.cached.Store(fresh)

	return fresh.value, nil
}

// Invalidate drops the cached value so the next caller re-acquires. Used
// when the downstream API rejects a token the cache still considers valid.
func (c *TokenCache) Invalidate() {
	c.cached.Store(nil)
}
