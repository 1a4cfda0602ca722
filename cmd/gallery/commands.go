package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/andresuchdata/repo-gallery/backend-go/internal/app"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/domain"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

func listImages(c *cli.Context) error {
	gallery, err := galleryFrom(c)
	if err != nil {
		return err
	}

	images, err := gallery.Listing.ListImages(c.Context)
	if err != nil {
		return fmt.Errorf("list images: %w", err)
	}

	out := c.App.Writer
	if c.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(images)
	}

	if len(images) == 0 {
		fmt.Fprintln(out, "No images found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED\tURL")
	for _, image := range images {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			image.Name,
			humanize.IBytes(uint64(image.Size)),
			image.LastModified.Format(time.RFC3339),
			image.URL)
	}
	return w.Flush()
}

func uploadImages(c *cli.Context) error {
	gallery, err := galleryFrom(c)
	if err != nil {
		return err
	}

	paths := c.Args().Slice()
	if len(paths) == 0 {
		return cli.Exit("at least one file is required", 2)
	}
	if c.IsSet("name") && len(paths) > 1 {
		return cli.Exit("--name can only be used with a single file", 2)
	}

	for _, path := range paths {
		name := filepath.Base(path)
		if c.IsSet("name") {
			name = c.String("name")
		}
		// the listing only shows these suffixes, so anything else would be stored but invisible
		if !domain.IsSupportedImage(name) {
			return cli.Exit(fmt.Sprintf("%s: name must end with one of %s", name,
				strings.Join(domain.SupportedImageExtensions(), ", ")), 2)
		}

		result, err := uploadFile(c.Context, gallery, path, name)
		if err != nil {
			return fmt.Errorf("upload %s: %w", path, err)
		}
		fmt.Fprintf(c.App.Writer, "%s -> %s\n", result.FileName, result.URL)
	}
	return nil
}

func uploadFile(ctx context.Context, gallery *app.App, path, name string) (*domain.UploadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return gallery.Uploads.UploadImage(ctx, file, name)
}

func updateDocument(c *cli.Context) error {
	gallery, err := galleryFrom(c)
	if err != nil {
		return err
	}
	if c.NArg() != 1 {
		return cli.Exit("exactly one FILE argument is required", 2)
	}

	var in io.Reader = c.App.Reader
	if path := c.Args().First(); path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		in = file
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	result, err := gallery.Document.UpdateDocument(c.Context, data)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "%s (%s)\n", result.Message, result.Path)
	return nil
}
