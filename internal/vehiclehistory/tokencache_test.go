// AngelaMos | 2026
// tokencache_test.go

package vehiclehistory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu       sync.Mutex
	calls    int
	token    string
	ttl      time.Duration
	err      error
	blocked  chan struct{}
	blocking bool
}

func (s *fakeSource) Acquire(
	ctx context.Context,
) (string, time.Duration, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	blocking := s.blocking
	s.mu.Unlock()

	if blocking {
		select {
		case <-s.blocked:
		case <-ctx.Done():
			return "", 0, ctx.Err()
		}
	}

	if s.err != nil {
		return "", 0, s.err
	}
	return fmt.Sprintf("%s-%d", s.token, n), s.ttl, nil
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestTokenCacheSingleAcquisitionUnderLoad(t *testing.T) {
	source := &fakeSource{token: "tok", ttl: time.Hour}
	cache := NewTokenCache(source, 5*time.Minute)

	const workers = 50

	results := make([]string, workers)
	var wg sync.WaitGroup
	var failures atomic.Int32

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := cache.GetToken(context.Background())
			if err != nil {
				failures.Add(1)
				return
			}
			results[i] = tok
		}()
	}
	wg.Wait()

	assert.Zero(t, failures.Load())
	assert.Equal(t, 1, source.callCount())
	for _, tok := range results {
		assert.Equal(t, "tok-1", tok)
	}
}

func TestTokenCacheRefreshesAfterExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	source := &fakeSource{token: "tok", ttl: time.Hour}
	cache := NewTokenCache(source, 5*time.Minute, WithClock(clock))

	first, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", first)

	// Still inside the buffered lifetime: served from cache.
	now = now.Add(54 * time.Minute)
	again, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", again)
	assert.Equal(t, 1, source.callCount())

	// One second past ttl-buffer: a single re-acquisition.
	now = now.Add(time.Minute + time.Second)
	refreshed, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", refreshed)
	assert.Equal(t, 2, source.callCount())
}

func TestTokenCacheDoesNotCacheFailure(t *testing.T) {
	boom := errors.New("authority down")
	source := &fakeSource{err: boom}
	cache := NewTokenCache(source, 5*time.Minute)

	_, err := cache.GetToken(context.Background())
	require.ErrorIs(t, err, boom)

	source.mu.Lock()
	source.err = nil
	source.token = "tok"
	source.ttl = time.Hour
	source.mu.Unlock()

	tok, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.Equal(t, 2, source.callCount())
}

func TestTokenCacheCancellationWhileWaiting(t *testing.T) {
	source := &fakeSource{
		token:    "tok",
		ttl:      time.Hour,
		blocking: true,
		blocked:  make(chan struct{}),
	}
	cache := NewTokenCache(source, 5*time.Minute)

	holderStarted := make(chan struct{})
	holderDone := make(chan error, 1)
	go func() {
		close(holderStarted)
		_, err := cache.GetToken(context.Background())
		holderDone <- err
	}()
	<-holderStarted

	// Wait until the holder occupies the gate.
	require.Eventually(t, func() bool {
		return source.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	waiterDone := make(chan error, 1)
	go func() {
		_, err := cache.GetToken(ctx)
		waiterDone <- err
	}()

	cancel()
	select {
	case err := <-waiterDone:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled waiter did not return")
	}

	// Unblock the holder; the gate must be reusable afterwards.
	close(source.blocked)
	require.NoError(t, <-holderDone)

	source.mu.Lock()
	source.blocking = false
	source.mu.Unlock()

	tok, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
}

func TestTokenCacheInvalidateForcesReacquire(t *testing.T) {
	source := &fakeSource{token: "tok", ttl: time.Hour}
	cache := NewTokenCache(source, 5*time.Minute)

	first, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", first)

	cache.Invalidate()

	second, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", second)
}
