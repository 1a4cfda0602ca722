package main

import (
	"context"
	"errors"
	"os"

	"github.com/andresuchdata/repo-gallery/backend-go/internal/app"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/config"
	"github.com/andresuchdata/repo-gallery/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

type contextKey string

const galleryKey contextKey = "gallery"

var errNotInitialized = errors.New("gallery is not initialized")

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("gallery command failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "gallery",
		Usage: "Manage the repository backed image gallery",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "owner",
				Usage:   "Repository owner",
				EnvVars: []string{"GITHUB_OWNER"},
			},
			&cli.StringFlag{
				Name:    "repo",
				Usage:   "Repository name",
				EnvVars: []string{"GITHUB_REPO"},
			},
			&cli.StringFlag{
				Name:    "branch",
				Usage:   "Branch holding the gallery",
				EnvVars: []string{"GITHUB_BRANCH"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "GitHub token",
				EnvVars: []string{"GITHUB_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "store",
				Usage:   "Content store backend (github or memory)",
				EnvVars: []string{"STORE_BACKEND"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level",
				Value:   "warn",
				EnvVars: []string{"GALLERY_CLI_LOG_LEVEL"},
			},
		},
		Before: initGallery,
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the images in the gallery",
				Action: listImages,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the listing as JSON",
					},
				},
			},
			{
				Name:      "upload",
				Usage:     "Upload one or more image files",
				ArgsUsage: "FILE...",
				Action:    uploadImages,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Store the file under this name (single file only)",
					},
				},
			},
			{
				Name:      "update-doc",
				Usage:     "Overwrite the JSON data document",
				ArgsUsage: "FILE (- for stdin)",
				Action:    updateDocument,
			},
		},
	}
}

func initGallery(c *cli.Context) error {
	logger.SetLevel(c.String("log-level"))

	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg := *loaded
	applyFlags(c, &cfg)

	gallery, err := app.New(&cfg)
	if err != nil {
		return err
	}

	// Store the gallery in the context
	c.Context = context.WithValue(c.Context, galleryKey, gallery)
	return nil
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("owner") {
		cfg.GitHub.Owner = c.String("owner")
	}
	if c.IsSet("repo") {
		cfg.GitHub.Repo = c.String("repo")
	}
	if c.IsSet("branch") && c.String("branch") != "" {
		cfg.GitHub.Branch = c.String("branch")
	}
	if c.IsSet("token") {
		cfg.GitHub.Token = c.String("token")
	}
	if c.IsSet("store") {
		cfg.GitHub.StoreBackend = c.String("store")
	}
}

func galleryFrom(c *cli.Context) (*app.App, error) {
	gallery, ok := c.Context.Value(galleryKey).(*app.App)
	if !ok || gallery == nil {
		return nil, errNotInitialized
	}
	return gallery, nil
}
