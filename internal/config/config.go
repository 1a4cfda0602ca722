// backend-go/internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingRepository is returned when the GitHub owner or repository is not configured.
var ErrMissingRepository = errors.New("GitHub repository configuration is missing")

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	GitHub   GitHubConfig
	Upload   UploadConfig
	Cache    CacheConfig
	Document DocumentConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

type GitHubConfig struct {
	Token          string
	Owner          string
	Repo           string
	Branch         string
	ImagesDir      string
	APIBaseURL     string
	RawBaseURL     string
	UserAgent      string
	TimeoutSeconds int
	StoreBackend   string
}

type UploadConfig struct {
	MaxBytes     int64
	AllowedTypes []string
	Concurrency  int
}

type CacheConfig struct {
	Backend            string
	TTLSeconds         int
	InvalidateOnUpload bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	RedisKey           string
}

type DocumentConfig struct {
	Path          string
	CommitMessage string
}

const (
	StoreBackendGitHub = "github"
	StoreBackendMemory = "memory"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"

	defaultMaxUploadSize = "5MiB"
)

var (
	once     sync.Once
	instance *Config
	loadErr  error
)

// Load reads the process configuration once from the environment (and .env when present).
func Load() (*Config, error) {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		SetDefaults(viper.GetViper())
		viper.AutomaticEnv()

		instance, loadErr = FromViper(viper.GetViper())
	})

	return instance, loadErr
}

// SetDefaults registers the default value of every supported key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("GITHUB_TOKEN", "")
	v.SetDefault("GITHUB_OWNER", "")
	v.SetDefault("GITHUB_REPO", "")
	v.SetDefault("GITHUB_BRANCH", "main")
	v.SetDefault("GITHUB_IMAGES_DIR", "data/images")
	v.SetDefault("GITHUB_API_URL", "")
	v.SetDefault("GITHUB_RAW_BASE_URL", "https://raw.githubusercontent.com")
	v.SetDefault("GITHUB_USER_AGENT", "my-image-gallery/v1.0")
	v.SetDefault("GITHUB_TIMEOUT_SECONDS", 15)
	v.SetDefault("STORE_BACKEND", StoreBackendGitHub)

	v.SetDefault("UPLOAD_MAX_SIZE", defaultMaxUploadSize)
	v.SetDefault("UPLOAD_ALLOWED_TYPES", []string{"image/jpeg", "image/png", "image/gif", "image/webp"})
	v.SetDefault("UPLOAD_CONCURRENCY", 4)

	v.SetDefault("CACHE_BACKEND", CacheBackendMemory)
	v.SetDefault("CACHE_TTL_SECONDS", 60)
	v.SetDefault("CACHE_INVALIDATE_ON_UPLOAD", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY", "gallery:images")

	v.SetDefault("DATA_DOCUMENT_PATH", "data/airdrop/data.json")
	v.SetDefault("DATA_DOCUMENT_COMMIT_MESSAGE", "Update airdrop data")
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	maxBytes, err := parseSize(v.GetString("UPLOAD_MAX_SIZE"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_SIZE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: splitList(v.GetStringSlice("SERVER_ALLOWED_ORIGINS")),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		GitHub: GitHubConfig{
			Token:          v.GetString("GITHUB_TOKEN"),
			Owner:          strings.TrimSpace(v.GetString("GITHUB_OWNER")),
			Repo:           strings.TrimSpace(v.GetString("GITHUB_REPO")),
			Branch:         strings.TrimSpace(v.GetString("GITHUB_BRANCH")),
			ImagesDir:      strings.Trim(v.GetString("GITHUB_IMAGES_DIR"), "/"),
			APIBaseURL:     v.GetString("GITHUB_API_URL"),
			RawBaseURL:     strings.TrimSuffix(v.GetString("GITHUB_RAW_BASE_URL"), "/"),
			UserAgent:      v.GetString("GITHUB_USER_AGENT"),
			TimeoutSeconds: v.GetInt("GITHUB_TIMEOUT_SECONDS"),
			StoreBackend:   strings.ToLower(v.GetString("STORE_BACKEND")),
		},
		Upload: UploadConfig{
			MaxBytes:     maxBytes,
			AllowedTypes: splitList(v.GetStringSlice("UPLOAD_ALLOWED_TYPES")),
			Concurrency:  v.GetInt("UPLOAD_CONCURRENCY"),
		},
		Cache: CacheConfig{
			Backend:            strings.ToLower(v.GetString("CACHE_BACKEND")),
			TTLSeconds:         v.GetInt("CACHE_TTL_SECONDS"),
			InvalidateOnUpload: v.GetBool("CACHE_INVALIDATE_ON_UPLOAD"),
			RedisURL:           v.GetString("REDIS_URL"),
			RedisHost:          v.GetString("REDIS_HOST"),
			RedisPort:          v.GetString("REDIS_PORT"),
			RedisPassword:      v.GetString("REDIS_PASSWORD"),
			RedisDB:            v.GetInt("REDIS_DB"),
			RedisKey:           v.GetString("REDIS_KEY"),
		},
		Document: DocumentConfig{
			Path:          strings.Trim(v.GetString("DATA_DOCUMENT_PATH"), "/"),
			CommitMessage: v.GetString("DATA_DOCUMENT_COMMIT_MESSAGE"),
		},
	}

	if cfg.GitHub.Branch == "" {
		cfg.GitHub.Branch = "main"
	}
	// "*" turns the MIME allow-list off
	for _, t := range cfg.Upload.AllowedTypes {
		if t == "*" {
			cfg.Upload.AllowedTypes = nil
			break
		}
	}

	return cfg, nil
}

// Validate reports ErrMissingRepository when owner or repository is empty.
func (c GitHubConfig) Validate() error {
	if c.Owner == "" || c.Repo == "" {
		return ErrMissingRepository
	}
	return nil
}

// PublicURL returns the raw download address of objectPath on the configured branch.
func (c GitHubConfig) PublicURL(objectPath string) string {
	base := c.RawBaseURL
	if base == "" {
		base = "https://raw.githubusercontent.com"
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s", base, c.Owner, c.Repo, c.Branch, strings.TrimPrefix(objectPath, "/"))
}

// parseSize accepts plain byte counts as well as human readable sizes like "5MiB".
func parseSize(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = defaultMaxUploadSize
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("size must be positive")
	}
	return int64(n), nil
}

// splitList flattens comma separated entries, which is how list values arrive from the environment.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
