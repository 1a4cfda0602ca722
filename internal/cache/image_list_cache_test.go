package cache

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/repo-gallery/backend-go/internal/config"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	current time.Time
}

func (f *fakeClock) Now() time.Time { return f.current }

func (f *fakeClock) Advance(d time.Duration) { f.current = f.current.Add(d) }

func sampleImages() []domain.ImageDescriptor {
	return []domain.ImageDescriptor{
		{Name: "a.png", URL: "https://raw.test/a.png", Size: 3},
		{Name: "b.jpg", URL: "https://raw.test/b.jpg", Size: 5},
	}
}

func TestMemoryImageListCacheStartsEmpty(t *testing.T) {
	c := NewMemoryImageListCache(time.Minute, nil)

	images, ok, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, images)
}

func TestMemoryImageListCacheHonorsTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{current: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemoryImageListCache(60*time.Second, clock.Now)

	require.NoError(t, c.Set(ctx, sampleImages()))

	clock.Advance(59 * time.Second)
	images, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleImages(), images)

	clock.Advance(time.Second)
	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "entry must expire exactly at the TTL")
}

func TestMemoryImageListCacheServesEmptyListing(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryImageListCache(time.Minute, nil)

	require.NoError(t, c.Set(ctx, nil))
	images, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, images)
	assert.Empty(t, images)
}

func TestMemoryImageListCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryImageListCache(time.Minute, nil)

	require.NoError(t, c.Set(ctx, sampleImages()))
	require.NoError(t, c.Invalidate(ctx))

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryImageListCacheCopiesData(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryImageListCache(time.Minute, nil)

	images := sampleImages()
	require.NoError(t, c.Set(ctx, images))
	images[0].Name = "mutated.png"

	cached, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a.png", cached[0].Name)

	cached[1].Name = "mutated.jpg"
	again, _, _ := c.Get(ctx)
	assert.Equal(t, "b.jpg", again[1].Name)
}

func TestNoopImageListCacheNeverHits(t *testing.T) {
	ctx := context.Background()
	c := NewNoopImageListCache()

	require.NoError(t, c.Set(ctx, sampleImages()))
	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx))
}

func TestNewImageListCacheSelectsBackend(t *testing.T) {
	c, err := NewImageListCache(config.CacheConfig{Backend: config.CacheBackendMemory, TTLSeconds: 5})
	require.NoError(t, err)
	assert.IsType(t, &memoryImageListCache{}, c)
	assert.Equal(t, 5*time.Second, c.(*memoryImageListCache).ttl)

	c, err = NewImageListCache(config.CacheConfig{Backend: config.CacheBackendNone})
	require.NoError(t, err)
	assert.IsType(t, &noopImageListCache{}, c)

	_, err = NewImageListCache(config.CacheConfig{Backend: "memcached"})
	assert.Error(t, err)
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:pw@example:6390/3"})
	require.NoError(t, err)
	assert.Equal(t, "example:6390", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "://bad"})
	assert.Error(t, err)
}
