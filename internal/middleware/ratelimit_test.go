// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLimiterEnforcesBurst(t *testing.T) {
	l := newLocalLimiter()
	limit := PerMinute(1, 2)

	first, err := l.allow("ratelimit:ip:10.0.0.1", limit)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Allowed)

	second, err := l.allow("ratelimit:ip:10.0.0.1", limit)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Allowed)

	third, err := l.allow("ratelimit:ip:10.0.0.1", limit)
	require.NoError(t, err)
	assert.Equal(t, 0, third.Allowed)
	assert.Greater(t, third.RetryAfter, time.Duration(0))
}

func TestLocalLimiterSweepDropsIdleEntries(t *testing.T) {
	l := newLocalLimiter()

	_, err := l.allow("ratelimit:ip:10.0.0.1", PerMinute(10, 10))
	require.NoError(t, err)

	_, loaded := l.limiters.Load("ratelimit:ip:10.0.0.1")
	require.True(t, loaded)

	l.sweep(time.Now().Add(time.Minute).Unix())

	_, loaded = l.limiters.Load("ratelimit:ip:10.0.0.1")
	assert.False(t, loaded)
}

// Request goroutines touch lastAccess while the sweeper reads it; both sides
// must stay race-free under load.
func TestLocalLimiterConcurrentAccessAndSweep(t *testing.T) {
	l := newLocalLimiter()
	limit := PerSecond(1000, 1000)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				_, err := l.allow("ratelimit:ip:shared", limit)
				assert.NoError(t, err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 200 {
			l.sweep(time.Now().Add(-time.Hour).Unix())
		}
	}()

	wg.Wait()
}

func TestKeyByIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.7:4312"
	assert.Equal(t, "ratelimit:ip:192.0.2.7", KeyByIP(r))

	r.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "ratelimit:ip:203.0.113.9", KeyByIP(r))

	r.Header.Set("X-Forwarded-For", "198.51.100.2, 203.0.113.50")
	assert.Equal(t, "ratelimit:ip:203.0.113.50", KeyByIP(r))
}
