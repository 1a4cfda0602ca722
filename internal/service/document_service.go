package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/andresuchdata/repo-gallery/backend-go/internal/config"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/domain"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

const documentSuccessMessage = "JSON updated successfully"

// DocumentService overwrites a single JSON document kept next to the images.
type DocumentService struct {
	store storage.ContentStore
	repo  config.GitHubConfig
	doc   config.DocumentConfig
}

func NewDocumentService(store storage.ContentStore, repo config.GitHubConfig, doc config.DocumentConfig) *DocumentService {
	return &DocumentService{store: store, repo: repo, doc: doc}
}

func (s *DocumentService) UpdateDocument(ctx context.Context, data json.RawMessage) (*domain.DocumentUpdateResult, error) {
	if err := validateRepository(s.repo); err != nil {
		return nil, err
	}
	if s.doc.Path == "" {
		return nil, fmt.Errorf("%w: document path is not configured", ErrMisconfigured)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || !json.Valid(trimmed) {
		return nil, ErrInvalidDocument
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, trimmed, "", "  "); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	var sha string
	existing, err := s.store.GetObject(ctx, s.doc.Path)
	switch {
	case err == nil:
		sha = existing.SHA
	case storage.KindOf(err) == storage.KindNotFound:
	default:
		return nil, classifyStoreError(err)
	}

	message := s.doc.CommitMessage
	if message == "" {
		message = "Update airdrop data"
	}

	written, err := s.store.PutObject(ctx, storage.PutRequest{
		Path:        s.doc.Path,
		Content:     pretty.Bytes(),
		Message:     message,
		ExpectedSHA: sha,
	})
	if err != nil {
		return nil, classifyStoreError(err)
	}

	log.Info().Str("path", s.doc.Path).Int("bytes", pretty.Len()).Msg("document: updated")

	return &domain.DocumentUpdateResult{
		Message: documentSuccessMessage,
		Path:    s.doc.Path,
		Commit:  written.CommitURL,
	}, nil
}
