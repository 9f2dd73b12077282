package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/colivhub/portal-server-go/internal/errors"
	redisclient "github.com/colivhub/portal-server-go/internal/redis"
)

func newTestRedis(t *testing.T) (*redisclient.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisclient.NewClientFromAddr(mr.Addr())
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRateLimiter_CheckLimit(t *testing.T) {
	client, _ := newTestRedis(t)
	limiter := NewRateLimiter(client)
	ctx := context.Background()

	t.Run("allows requests within limit", func(t *testing.T) {
		key := "test:user1"
		limit := 3
		window := 10 * time.Second

		for i := 0; i < limit; i++ {
			allowed, _ := limiter.CheckLimit(ctx, key, limit, window)
			assert.True(t, allowed, "Request %d should be allowed", i+1)
		}

		allowed, resetAt := limiter.CheckLimit(ctx, key, limit, window)
		assert.False(t, allowed, "Request should be rate limited")
		assert.True(t, resetAt.After(time.Now().Add(-time.Second)))
	})

	t.Run("keys are independent", func(t *testing.T) {
		limit := 1
		window := time.Minute

		allowed, _ := limiter.CheckLimit(ctx, "test:a", limit, window)
		assert.True(t, allowed)
		allowed, _ = limiter.CheckLimit(ctx, "test:b", limit, window)
		assert.True(t, allowed)
		allowed, _ = limiter.CheckLimit(ctx, "test:a", limit, window)
		assert.False(t, allowed)
	})
}

func TestRateLimiter_Allow(t *testing.T) {
	client, _ := newTestRedis(t)
	limiter := NewRateLimiter(client)
	ctx := context.Background()

	require.NoError(t, limiter.Allow(ctx, "allow:x", 1, time.Minute))

	err := limiter.Allow(ctx, "allow:x", 1, time.Minute)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeRateLimitExceeded, apperrors.GetCode(err))
}

func TestRateLimiter_FailsClosed(t *testing.T) {
	client, mr := newTestRedis(t)
	limiter := NewRateLimiter(client)
	mr.Close()

	allowed, resetAt := limiter.CheckLimit(context.Background(), "down", 5, time.Minute)
	assert.False(t, allowed)
	assert.True(t, resetAt.After(time.Now()))
}
