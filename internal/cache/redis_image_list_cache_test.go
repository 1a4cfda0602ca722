package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requires Redis running on localhost:6379, skipped otherwise
const testRedisAddr = "localhost:6379"

func setupRedisCache(t *testing.T) *redisImageListCache {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	key := "test:gallery:images:" + t.Name()
	c := newRedisImageListCache(client, key, time.Minute)
	t.Cleanup(func() {
		client.Del(ctx, key)
		_ = client.Close()
	})
	return c
}

func TestRedisImageListCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := setupRedisCache(t)

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, sampleImages()))
	images, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, images, 2)
	assert.Equal(t, "a.png", images[0].Name)

	ttl, err := c.client.TTL(ctx, c.key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisImageListCacheEmptyListing(t *testing.T) {
	ctx := context.Background()
	c := setupRedisCache(t)

	require.NoError(t, c.Set(ctx, nil))
	images, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, images)
	assert.Empty(t, images)
}
