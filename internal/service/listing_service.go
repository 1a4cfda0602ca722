package service

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/andresuchdata/repo-gallery/backend-go/internal/cache"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/config"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/domain"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/metrics"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const listingFlightKey = "images"

type ListingService struct {
	store   storage.ContentStore
	cache   cache.ImageListCache
	repo    config.GitHubConfig
	metrics *metrics.Metrics
	group   singleflight.Group
	now     func() time.Time
}

func NewListingService(store storage.ContentStore, cacheImpl cache.ImageListCache, repo config.GitHubConfig, m *metrics.Metrics) *ListingService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopImageListCache()
	}
	return &ListingService{
		store:   store,
		cache:   cacheImpl,
		repo:    repo,
		metrics: m,
		now:     time.Now,
	}
}

// WithNow overrides the clock used for fallback modification times.
func (s *ListingService) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ListImages returns the images in the gallery directory, serving the cached listing
// while it is fresh. A missing directory is an empty gallery.
func (s *ListingService) ListImages(ctx context.Context) ([]domain.ImageDescriptor, error) {
	if images, ok, err := s.cache.Get(ctx); err == nil && ok {
		s.metrics.CacheHit()
		return images, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("listing: cache get failed")
	}
	s.metrics.CacheMiss()

	if err := validateRepository(s.repo); err != nil {
		return nil, err
	}

	// concurrent misses share one remote call; it must outlive any single caller
	ch := s.group.DoChan(listingFlightKey, func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		images := res.Val.([]domain.ImageDescriptor)
		if res.Shared {
			clone := make([]domain.ImageDescriptor, len(images))
			copy(clone, images)
			images = clone
		}
		return images, nil
	}
}

// Invalidate drops the cached listing so the next call fetches from the store.
func (s *ListingService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}

func (s *ListingService) fetch(ctx context.Context) ([]domain.ImageDescriptor, error) {
	entries, err := s.store.ListDirectory(ctx, s.repo.ImagesDir)
	if err != nil {
		if storage.KindOf(err) == storage.KindNotFound {
			log.Info().Str("dir", s.repo.ImagesDir).Msg("listing: image directory not found, returning empty gallery")
			return make([]domain.ImageDescriptor, 0), nil
		}
		return nil, classifyStoreError(err)
	}

	images := make([]domain.ImageDescriptor, 0, len(entries))
	for _, entry := range entries {
		if entry.Type != storage.EntryTypeFile || !domain.IsSupportedImage(entry.Name) {
			continue
		}
		images = append(images, s.toDescriptor(entry))
	}

	if err := s.cache.Set(ctx, images); err != nil {
		log.Warn().Err(err).Msg("listing: cache set failed")
	}
	return images, nil
}

func (s *ListingService) toDescriptor(entry storage.Entry) domain.ImageDescriptor {
	downloadURL := entry.DownloadURL
	if downloadURL == "" {
		downloadURL = s.repo.PublicURL(path.Join(s.repo.ImagesDir, entry.Name))
	}

	lastModified, ok := modifiedFromURL(downloadURL)
	if !ok {
		lastModified = s.now().UTC()
	}

	return domain.ImageDescriptor{
		Name:         entry.Name,
		URL:          downloadURL,
		Size:         entry.Size,
		LastModified: lastModified,
	}
}

// modifiedFromURL reads a timestamp from the first query parameter of a download URL,
// which is where signed raw URLs carry it.
func modifiedFromURL(raw string) (time.Time, bool) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.RawQuery == "" {
		return time.Time{}, false
	}

	first, _, _ := strings.Cut(parsed.RawQuery, "&")
	_, value, found := strings.Cut(first, "=")
	if !found {
		return time.Time{}, false
	}
	value, err = url.QueryUnescape(value)
	if err != nil {
		return time.Time{}, false
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.RFC1123} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
