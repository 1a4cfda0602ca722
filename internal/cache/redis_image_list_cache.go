package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/repo-gallery/backend-go/internal/config"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const defaultImageListKey = "gallery:images"

type redisImageListCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisImageListCache shares the listing between server replicas. Expiry is left to Redis.
func NewRedisImageListCache(cfg config.CacheConfig) (ImageListCache, error) {
	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return newRedisImageListCache(client, cfg.RedisKey, ttl), nil
}

func newRedisImageListCache(client *redis.Client, key string, ttl time.Duration) *redisImageListCache {
	if key == "" {
		key = defaultImageListKey
	}
	return &redisImageListCache{client: client, key: key, ttl: ttl}
}

func (c *redisImageListCache) Get(ctx context.Context) ([]domain.ImageDescriptor, bool, error) {
	payload, err := c.client.Get(ctx, c.key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var images []domain.ImageDescriptor
	if err := json.Unmarshal(payload, &images); err != nil {
		return nil, false, fmt.Errorf("decode image list cache: %w", err)
	}
	if images == nil {
		images = make([]domain.ImageDescriptor, 0)
	}
	return images, true, nil
}

func (c *redisImageListCache) Set(ctx context.Context, images []domain.ImageDescriptor) error {
	if images == nil {
		images = make([]domain.ImageDescriptor, 0)
	}
	payload, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("encode image list cache: %w", err)
	}

	if err := c.client.Set(ctx, c.key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisImageListCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
