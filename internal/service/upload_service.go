package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/andresuchdata/repo-gallery/backend-go/internal/cache"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/config"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/domain"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/metrics"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/storage"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

const (
	uploadSuccessMessage = "File uploaded successfully"
	defaultConcurrency   = 4
)

type UploadService struct {
	store      storage.ContentStore
	cache      cache.ImageListCache
	repo       config.GitHubConfig
	limits     config.UploadConfig
	invalidate bool
	sem        *semaphore.Weighted
	metrics    *metrics.Metrics
}

type UploadServiceOptions struct {
	Repo   config.GitHubConfig
	Limits config.UploadConfig
	// InvalidateCache drops the listing cache after every successful upload.
	InvalidateCache bool
	Metrics         *metrics.Metrics
}

func NewUploadService(store storage.ContentStore, cacheImpl cache.ImageListCache, opts UploadServiceOptions) *UploadService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopImageListCache()
	}
	concurrency := opts.Limits.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &UploadService{
		store:      store,
		cache:      cacheImpl,
		repo:       opts.Repo,
		limits:     opts.Limits,
		invalidate: opts.InvalidateCache,
		sem:        semaphore.NewWeighted(int64(concurrency)),
		metrics:    opts.Metrics,
	}
}

// MaxBytes is the largest accepted payload.
func (s *UploadService) MaxBytes() int64 {
	return s.limits.MaxBytes
}

// UploadImage stores the stream under <images dir>/<file name>, replacing any existing
// object with that name. Size and type are checked before the content store is touched.
func (s *UploadService) UploadImage(ctx context.Context, file io.Reader, originalFileName string) (*domain.UploadResult, error) {
	result, size, err := s.upload(ctx, file, originalFileName)
	s.metrics.Upload(uploadOutcome(err), size)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *UploadService) upload(ctx context.Context, file io.Reader, originalFileName string) (*domain.UploadResult, int64, error) {
	if file == nil {
		return nil, 0, ErrNoFile
	}
	fileName, err := sanitizeFileName(originalFileName)
	if err != nil {
		return nil, 0, err
	}
	if err := validateRepository(s.repo); err != nil {
		return nil, 0, err
	}

	content, err := s.readLimited(file)
	if err != nil {
		return nil, 0, err
	}
	size := int64(len(content))

	if err := s.checkType(content); err != nil {
		return nil, size, err
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, size, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer s.sem.Release(1)

	objectPath := path.Join(s.repo.ImagesDir, fileName)

	var sha string
	existing, err := s.store.GetObject(ctx, objectPath)
	switch {
	case err == nil:
		sha = existing.SHA
	case storage.KindOf(err) == storage.KindNotFound:
	default:
		return nil, size, classifyStoreError(err)
	}

	written, err := s.store.PutObject(ctx, storage.PutRequest{
		Path:        objectPath,
		Content:     content,
		Message:     "Upload " + fileName,
		ExpectedSHA: sha,
	})
	if err != nil {
		return nil, size, classifyStoreError(err)
	}

	log.Info().
		Str("file", fileName).
		Str("path", objectPath).
		Str("size", humanize.IBytes(uint64(size))).
		Bool("overwrite", sha != "").
		Msg("upload: image stored")

	if s.invalidate {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Msg("upload: cache invalidate failed")
		}
	}

	return &domain.UploadResult{
		Message:  uploadSuccessMessage,
		FileName: fileName,
		Path:     objectPath,
		URL:      s.repo.PublicURL(objectPath),
		Commit:   written.CommitURL,
	}, size, nil
}

// readLimited reads at most the configured limit, failing once the stream grows past it.
func (s *UploadService) readLimited(file io.Reader) ([]byte, error) {
	limit := s.limits.MaxBytes
	content, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(content)) > limit {
		return nil, fmt.Errorf("%w: exceeds %s limit", ErrPayloadTooLarge, humanize.IBytes(uint64(limit)))
	}
	return content, nil
}

func (s *UploadService) checkType(content []byte) error {
	if len(s.limits.AllowedTypes) == 0 {
		return nil
	}
	detected := mimetype.Detect(content)
	if mimetype.EqualsAny(detected.String(), s.limits.AllowedTypes...) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedType, detected.String())
}

// sanitizeFileName keeps the base name of the client supplied name.
func sanitizeFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNoFile
	}
	// browsers on Windows may send the full client path
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	if strings.ContainsAny(name, "\x00") {
		return "", fmt.Errorf("%w: contains NUL", ErrInvalidFileName)
	}
	return name, nil
}

func uploadOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrPayloadTooLarge):
		return "too_large"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, ErrNoFile), errors.Is(err, ErrInvalidFileName):
		return "invalid"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "error"
	}
}
