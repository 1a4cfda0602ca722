package app

import (
	"fmt"
	"time"

	"github.com/andresuchdata/repo-gallery/backend-go/internal/api"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/cache"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/config"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/metrics"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/service"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

// App holds the wired gallery components shared by the server and the CLI.
type App struct {
	Config   *config.Config
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Store    storage.ContentStore
	Cache    cache.ImageListCache

	Listing  *service.ListingService
	Uploads  *service.UploadService
	Document *service.DocumentService
}

// New builds every component selected by cfg. Missing repository settings are not an
// error here; each request reports them instead.
func New(cfg *config.Config) (*App, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m, err := metrics.New("gallery", registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	store, err := NewStore(cfg.GitHub)
	if err != nil {
		return nil, err
	}
	store = storage.WithObserver(store, m)

	listCache, err := cache.NewImageListCache(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("init listing cache: %w", err)
	}

	if err := cfg.GitHub.Validate(); err != nil {
		log.Warn().Err(err).Msg("GITHUB_OWNER and GITHUB_REPO must be set; gallery requests will fail")
	}

	return &App{
		Config:   cfg,
		Registry: registry,
		Metrics:  m,
		Store:    store,
		Cache:    listCache,
		Listing:  service.NewListingService(store, listCache, cfg.GitHub, m),
		Uploads: service.NewUploadService(store, listCache, service.UploadServiceOptions{
			Repo:            cfg.GitHub,
			Limits:          cfg.Upload,
			InvalidateCache: cfg.Cache.InvalidateOnUpload,
			Metrics:         m,
		}),
		Document: service.NewDocumentService(store, cfg.GitHub, cfg.Document),
	}, nil
}

// NewStore returns the content store selected by cfg.StoreBackend.
func NewStore(cfg config.GitHubConfig) (storage.ContentStore, error) {
	switch cfg.StoreBackend {
	case "", config.StoreBackendGitHub:
		store, err := storage.NewGitHubStore(storage.GitHubStoreConfig{
			Token:      cfg.Token,
			Owner:      cfg.Owner,
			Repo:       cfg.Repo,
			Branch:     cfg.Branch,
			APIBaseURL: cfg.APIBaseURL,
			UserAgent:  cfg.UserAgent,
			Timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("init github store: %w", err)
		}
		return store, nil
	case config.StoreBackendMemory:
		log.Warn().Msg("using in-memory content store; uploads are lost on restart")
		return storage.NewMemoryStore(cfg.PublicURL("")), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Router returns the HTTP handler serving the API, the UI and /metrics.
func (a *App) Router() *gin.Engine {
	return api.NewRouter(&api.Services{
		Listing:  a.Listing,
		Uploads:  a.Uploads,
		Document: a.Document,
	}, api.Options{
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		Gatherer:       a.Registry,
		ServeUI:        true,
	})
}
