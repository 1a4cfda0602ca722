package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/repo-gallery/backend-go/internal/config"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/domain"
)

// ImageListCache holds the most recent gallery listing.
type ImageListCache interface {
	Get(ctx context.Context) ([]domain.ImageDescriptor, bool, error)
	Set(ctx context.Context, images []domain.ImageDescriptor) error
	Invalidate(ctx context.Context) error
}

// CacheEntry is the single in-process listing snapshot.
type CacheEntry struct {
	Timestamp time.Time
	Data      []domain.ImageDescriptor
}

type memoryImageListCache struct {
	mu    sync.RWMutex
	entry CacheEntry
	ttl   time.Duration
	now   func() time.Time
}

type noopImageListCache struct{}

// NewImageListCache builds the cache selected by cfg.Backend.
func NewImageListCache(cfg config.CacheConfig) (ImageListCache, error) {
	switch cfg.Backend {
	case "", config.CacheBackendMemory:
		return NewMemoryImageListCache(ttlFromConfig(cfg), nil), nil
	case config.CacheBackendRedis:
		return NewRedisImageListCache(cfg)
	case config.CacheBackendNone:
		return NewNoopImageListCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// NewMemoryImageListCache keeps one entry in memory. now defaults to time.Now.
func NewMemoryImageListCache(ttl time.Duration, now func() time.Time) ImageListCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &memoryImageListCache{ttl: ttl, now: now}
}

func NewNoopImageListCache() ImageListCache {
	return &noopImageListCache{}
}

// Get returns the cached listing only while it is younger than the TTL.
func (c *memoryImageListCache) Get(ctx context.Context) ([]domain.ImageDescriptor, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry.Data == nil || c.now().Sub(c.entry.Timestamp) >= c.ttl {
		return nil, false, nil
	}
	images := make([]domain.ImageDescriptor, len(c.entry.Data))
	copy(images, c.entry.Data)
	return images, true, nil
}

func (c *memoryImageListCache) Set(ctx context.Context, images []domain.ImageDescriptor) error {
	data := make([]domain.ImageDescriptor, len(images))
	copy(data, images)

	c.mu.Lock()
	c.entry = CacheEntry{Timestamp: c.now(), Data: data}
	c.mu.Unlock()
	return nil
}

func (c *memoryImageListCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.entry = CacheEntry{}
	c.mu.Unlock()
	return nil
}

func (n *noopImageListCache) Get(ctx context.Context) ([]domain.ImageDescriptor, bool, error) {
	return nil, false, nil
}

func (n *noopImageListCache) Set(ctx context.Context, images []domain.ImageDescriptor) error {
	return nil
}

func (n *noopImageListCache) Invalidate(ctx context.Context) error {
	return nil
}
