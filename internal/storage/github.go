package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// GitHubStoreConfig encapsulates the connection info for a repository used as a content store.
type GitHubStoreConfig struct {
	Token      string
	Owner      string
	Repo       string
	Branch     string
	APIBaseURL string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// GitHubStore implements ContentStore on top of the repository contents API.
type GitHubStore struct {
	client *github.Client
	owner  string
	repo   string
	branch string
}

// NewGitHubStore builds a GitHubStore. Owner and repository are not validated here so that
// a misconfigured process can still start and report the problem per request.
func NewGitHubStore(cfg GitHubStoreConfig) (*GitHubStore, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	if cfg.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	} else {
		clone := *httpClient
		httpClient = &clone
	}
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	}

	client := github.NewClient(httpClient)
	if cfg.APIBaseURL != "" {
		baseURL, err := url.Parse(cfg.APIBaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		if !strings.HasSuffix(baseURL.Path, "/") {
			baseURL.Path += "/"
		}
		client.BaseURL = baseURL
	}
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}

	branch := strings.TrimSpace(cfg.Branch)
	if branch == "" {
		branch = "main"
	}

	return &GitHubStore{
		client: client,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		branch: branch,
	}, nil
}

// ListDirectory lists the children of dir on the configured branch.
func (s *GitHubStore) ListDirectory(ctx context.Context, dir string) ([]Entry, error) {
	file, entries, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, dir, s.getOptions())
	if err != nil {
		return nil, classifyGitHubError("list", dir, err)
	}
	if entries == nil {
		kind := "nothing"
		if file != nil {
			kind = "a single " + file.GetType()
		}
		return nil, newError(KindMalformed, "list", dir, 0, fmt.Errorf("expected an array of files but got %s", kind))
	}

	log.Debug().Str("dir", dir).Int("entries", len(entries)).Msg("github: directory listed")

	results := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		results = append(results, Entry{
			Name:        entry.GetName(),
			Path:        entry.GetPath(),
			Type:        entry.GetType(),
			Size:        int64(entry.GetSize()),
			SHA:         entry.GetSHA(),
			DownloadURL: entry.GetDownloadURL(),
		})
	}
	return results, nil
}

// GetObject fetches a file with its current SHA. Content is left empty when GitHub
// does not inline it (files above 1 MB).
func (s *GitHubStore) GetObject(ctx context.Context, objectPath string) (*Object, error) {
	file, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, objectPath, s.getOptions())
	if err != nil {
		return nil, classifyGitHubError("get", objectPath, err)
	}
	if file == nil {
		return nil, newError(KindMalformed, "get", objectPath, 0, errors.New("path is a directory"))
	}

	object := &Object{
		Path:        file.GetPath(),
		SHA:         file.GetSHA(),
		Size:        int64(file.GetSize()),
		DownloadURL: file.GetDownloadURL(),
	}
	if content, err := file.GetContent(); err == nil && content != "" {
		object.Content = []byte(content)
	}
	return object, nil
}

// PutObject creates or updates a file. GitHub rejects an update whose SHA no longer
// matches (409) and a create over an existing file (422); both surface as ErrConflict.
func (s *GitHubStore) PutObject(ctx context.Context, req PutRequest) (*PutResult, error) {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(req.Message),
		Content: req.Content,
		Branch:  github.String(s.branch),
	}

	var (
		resp *github.RepositoryContentResponse
		err  error
		op   = "create"
	)
	if req.ExpectedSHA != "" {
		op = "update"
		opts.SHA = github.String(req.ExpectedSHA)
		resp, _, err = s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, req.Path, opts)
	} else {
		resp, _, err = s.client.Repositories.CreateFile(ctx, s.owner, s.repo, req.Path, opts)
	}
	if err != nil {
		return nil, classifyGitHubError(op, req.Path, err)
	}

	log.Debug().
		Str("op", op).
		Str("path", req.Path).
		Str("commit", resp.Commit.GetSHA()).
		Msg("github: content written")

	return &PutResult{
		Path:      resp.GetContent().GetPath(),
		SHA:       resp.GetContent().GetSHA(),
		CommitSHA: resp.Commit.GetSHA(),
		CommitURL: resp.Commit.GetHTMLURL(),
		Committed: resp.Commit.GetCommitter().GetDate().Time,
	}, nil
}

func (s *GitHubStore) getOptions() *github.RepositoryContentGetOptions {
	return &github.RepositoryContentGetOptions{Ref: s.branch}
}

// classifyGitHubError maps go-github errors onto the store's closed set of kinds.
// GitHub reports exhausted quotas as 403, so every 403 is treated as rate limiting.
func classifyGitHubError(op, objectPath string, err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return newError(KindRateLimited, op, objectPath, statusOf(rateErr.Response), err)
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return newError(KindRateLimited, op, objectPath, statusOf(abuseErr.Response), err)
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		status := respErr.Response.StatusCode
		switch status {
		case http.StatusNotFound:
			return newError(KindNotFound, op, objectPath, status, err)
		case http.StatusForbidden, http.StatusTooManyRequests:
			return newError(KindRateLimited, op, objectPath, status, err)
		case http.StatusConflict, http.StatusUnprocessableEntity:
			return newError(KindConflict, op, objectPath, status, err)
		case http.StatusUnauthorized:
			return newError(KindUnauthorized, op, objectPath, status, err)
		default:
			return newError(KindUnavailable, op, objectPath, status, err)
		}
	}

	return newError(KindUnavailable, op, objectPath, 0, err)
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

var _ ContentStore = (*GitHubStore)(nil)
