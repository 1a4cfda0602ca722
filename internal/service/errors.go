package service

import (
	"errors"
	"fmt"

	"github.com/andresuchdata/repo-gallery/backend-go/internal/config"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/storage"
)

// Sentinel errors returned by the gallery services.
var (
	// ErrMisconfigured covers missing repository settings, rejected credentials and
	// listings that do not have the expected shape.
	ErrMisconfigured = errors.New("content store misconfigured")
	ErrRateLimited   = errors.New("API rate limit exceeded")
	ErrConflict      = errors.New("object was modified concurrently")
	ErrUnavailable   = errors.New("content store unavailable")

	ErrNoFile          = errors.New("no file uploaded")
	ErrInvalidFileName = errors.New("invalid file name")
	ErrMultipleFiles   = errors.New("only one file can be uploaded at a time")
	ErrPayloadTooLarge = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInvalidDocument = errors.New("invalid JSON document")
)

// classifyStoreError re-surfaces a content store failure as the closest service error,
// keeping the original error in the chain for diagnostics.
func classifyStoreError(err error) error {
	if err == nil {
		return nil
	}
	switch storage.KindOf(err) {
	case storage.KindRateLimited:
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case storage.KindConflict:
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case storage.KindUnauthorized, storage.KindMalformed:
		return fmt.Errorf("%w: %w", ErrMisconfigured, err)
	case storage.KindNotFound:
		return err
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}

func validateRepository(cfg config.GitHubConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrMisconfigured, err)
	}
	return nil
}
