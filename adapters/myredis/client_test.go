package myredis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis starts an in-process redis and returns a client connected to it.
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisUniversalClient("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewRedisUniversalClient(t *testing.T) {
	t.Run("valid URL returns working client", func(t *testing.T) {
		_, client := setupTestRedis(t)
		require.NoError(t, client.Ping(context.Background()).Err())
	})

	t.Run("invalid URL returns error", func(t *testing.T) {
		client, err := NewRedisUniversalClient("://invalid")
		require.Error(t, err)
		assert.Nil(t, client)
	})

	t.Run("options are applied", func(t *testing.T) {
		var seen time.Duration
		client, err := NewRedisUniversalClient("redis://localhost:6379/2", func(o *redis.Options) {
			o.DialTimeout = time.Second
			seen = o.DialTimeout
		})
		require.NoError(t, err)
		defer client.Close()
		assert.Equal(t, time.Second, seen)
	})

	t.Run("timeouts option", func(t *testing.T) {
		opts := &redis.Options{}
		WithTimeouts(2 * time.Second)(opts)
		assert.Equal(t, 2*time.Second, opts.DialTimeout)
		assert.Equal(t, 2*time.Second, opts.ReadTimeout)
		assert.Equal(t, 2*time.Second, opts.WriteTimeout)
	})
}
