package grading

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterBoundsConcurrency(t *testing.T) {
	limiter := NewLimiter(2, 0)

	var inFlight, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, limiter.Acquire(context.Background()))
			current := atomic.AddInt64(&inFlight, 1)
			for {
				observed := atomic.LoadInt64(&peak)
				if current <= observed || atomic.CompareAndSwapInt64(&peak, observed, current) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			limiter.Release()
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
}

func TestLimiterReleasesSlotOnCancelledDelay(t *testing.T) {
	limiter := NewLimiter(1, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := limiter.Acquire(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// The slot must be free again for the next caller.
	require.True(t, limiter.sem.TryAcquire(1), "slot must be free after a cancelled acquire")
	limiter.sem.Release(1)
}

func TestLimiterZeroMaxStillAdmitsOne(t *testing.T) {
	limiter := NewLimiter(0, 0)
	require.NoError(t, limiter.Acquire(context.Background()))
	limiter.Release()
}
