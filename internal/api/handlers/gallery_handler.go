package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/andresuchdata/repo-gallery/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// multipartOverhead is allowed on top of the payload limit for boundaries and part headers.
const multipartOverhead = 1 << 20

type GalleryHandler struct {
	listing  *service.ListingService
	uploads  *service.UploadService
	document *service.DocumentService
}

func NewGalleryHandler(listing *service.ListingService, uploads *service.UploadService, document *service.DocumentService) *GalleryHandler {
	return &GalleryHandler{listing: listing, uploads: uploads, document: document}
}

// ListImages returns every image in the gallery directory
func (h *GalleryHandler) ListImages(c *gin.Context) {
	images, err := h.listing.ListImages(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch images")
		return
	}
	c.JSON(http.StatusOK, images)
}

// UploadImage stores the single multipart part named "file"
func (h *GalleryHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploads.MaxBytes()+multipartOverhead)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, fmt.Errorf("%w: request body exceeds %d bytes", service.ErrPayloadTooLarge, tooLarge.Limit), "Upload failed")
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data", "details": err.Error()})
		return
	}
	defer func() {
		if err := form.RemoveAll(); err != nil {
			log.Warn().Err(err).Msg("failed to remove multipart temp files")
		}
	}()

	files := form.File["file"]
	switch {
	case len(files) == 0:
		respondError(c, service.ErrNoFile, "Upload failed")
		return
	case len(files) > 1:
		respondError(c, service.ErrMultipleFiles, "Upload failed")
		return
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		respondError(c, fmt.Errorf("open uploaded file: %w", err), "Upload failed")
		return
	}
	defer file.Close()

	result, err := h.uploads.UploadImage(c.Request.Context(), file, header.Filename)
	if err != nil {
		respondError(c, err, "Upload failed")
		return
	}
	c.JSON(http.StatusOK, result)
}

type updateDocumentRequest struct {
	Data json.RawMessage `json:"data"`
}

// UpdateDocument overwrites the JSON data document with the request's "data" value
func (h *GalleryHandler) UpdateDocument(c *gin.Context) {
	var req updateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %w", service.ErrInvalidDocument, err), "Update failed")
		return
	}

	result, err := h.document.UpdateDocument(c.Request.Context(), req.Data)
	if err != nil {
		respondError(c, err, "Update failed")
		return
	}
	c.JSON(http.StatusOK, result)
}
