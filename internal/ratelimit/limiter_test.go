package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExhaustedLatch(t *testing.T) {
	l := New("data4library", 5)

	assert.False(t, l.Exhausted(), "fresh limiter should not be exhausted")

	l.MarkExhausted()
	assert.True(t, l.Exhausted())

	// idempotent
	l.MarkExhausted()
	assert.True(t, l.Exhausted())
}

func TestNonPositiveRateIsUnlimited(t *testing.T) {
	l := New("unlimited", 0)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(ctx), "request %d should be allowed", i)
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestWaitHonoursCancelledContext(t *testing.T) {
	l := New("slow", 1)
	require.NoError(t, l.Wait(context.Background()), "first request uses the burst")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait for slow")
	assert.Equal(t, "slow", l.Name())
}
