package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertLimiter_AcquireRelease(t *testing.T) {
	limiter := NewConvertLimiter(2, time.Second)
	ctx := context.Background()

	assert.Equal(t, 2, limiter.Available())

	require.NoError(t, limiter.Acquire(ctx))
	require.NoError(t, limiter.Acquire(ctx))
	assert.Equal(t, 2, limiter.ActiveCount())
	assert.Equal(t, 0, limiter.Available())

	limiter.Release()
	limiter.Release()
	assert.Equal(t, 0, limiter.ActiveCount())
}

func TestConvertLimiter_TimesOutWhenFull(t *testing.T) {
	limiter := NewConvertLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, limiter.Acquire(ctx))
	defer limiter.Release()

	start := time.Now()
	err := limiter.Acquire(ctx)
	assert.ErrorIs(t, err, ErrTooManyConversions)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond, "timeout too fast")
}

func TestConvertLimiter_ContextCancellation(t *testing.T) {
	limiter := NewConvertLimiter(1, 5*time.Second)

	require.NoError(t, limiter.Acquire(context.Background()))
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- limiter.Acquire(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Error("Acquire did not return after context cancellation")
	}
}

func TestConvertLimiter_FreeSlotIgnoresWait(t *testing.T) {
	limiter := NewConvertLimiter(1, time.Nanosecond)

	require.NoError(t, limiter.Acquire(context.Background()), "a free slot is taken without waiting")
	limiter.Release()
}

func TestConvertLimiter_ConcurrentAccess(t *testing.T) {
	const maxConcurrent = 3
	limiter := NewConvertLimiter(maxConcurrent, 5*time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	maxObserved := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !assert.NoError(t, limiter.Acquire(context.Background())) {
				return
			}
			defer limiter.Release()

			mu.Lock()
			maxObserved = max(maxObserved, limiter.ActiveCount())
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, maxObserved, maxConcurrent)
	assert.Equal(t, 0, limiter.ActiveCount())
}

func TestConvertLimiter_TryAcquire(t *testing.T) {
	limiter := NewConvertLimiter(1, time.Second)

	require.True(t, limiter.TryAcquire(), "first TryAcquire should succeed")
	if !assert.False(t, limiter.TryAcquire(), "second TryAcquire should fail") {
		limiter.Release()
	}
	limiter.Release()

	assert.True(t, limiter.TryAcquire(), "TryAcquire after Release should succeed")
	limiter.Release()
}

func TestConvertLimiter_WaitForDrain(t *testing.T) {
	limiter := NewConvertLimiter(2, time.Second)
	require.True(t, limiter.TryAcquire())

	done := make(chan error, 1)
	go func() {
		done <- limiter.WaitForDrain(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("WaitForDrain returned with an active run")
	case <-time.After(50 * time.Millisecond):
	}

	limiter.Release()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Error("WaitForDrain did not complete after release")
	}
}

func TestConvertLimiter_WaitForDrainIdle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, NewConvertLimiter(1, time.Second).WaitForDrain(ctx))
}

func TestConvertLimiter_StatusAndDefaults(t *testing.T) {
	limiter := NewConvertLimiter(0, 0)
	assert.Equal(t, DefaultMaxConcurrentConversions, limiter.MaxConcurrent())

	require.True(t, limiter.TryAcquire())
	defer limiter.Release()

	assert.Equal(t, LimiterStatus{
		Active:        1,
		Available:     DefaultMaxConcurrentConversions - 1,
		MaxConcurrent: DefaultMaxConcurrentConversions,
	}, limiter.Status())
}
