package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_ExhaustsBurstPerKey(t *testing.T) {
	limiter := NewTokenBucketLimiter(2, time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)

	// Other clients have their own bucket
	ok, err = limiter.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_RefillsOverTime(t *testing.T) {
	limiter := NewTokenBucketLimiter(1, 20*time.Millisecond)
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, ok)

	ok, _ = limiter.Allow(ctx, "1.2.3.4")
	require.False(t, ok)

	time.Sleep(40 * time.Millisecond)

	ok, err = limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReset_ClearsTheBucket(t *testing.T) {
	limiter := NewTokenBucketLimiter(1, time.Hour)
	ctx := context.Background()

	ok, _ := limiter.Allow(ctx, "1.2.3.4")
	require.True(t, ok)
	ok, _ = limiter.Allow(ctx, "1.2.3.4")
	require.False(t, ok)

	require.NoError(t, limiter.Reset(ctx, "1.2.3.4"))

	ok, _ = limiter.Allow(ctx, "1.2.3.4")
	assert.True(t, ok)
}
