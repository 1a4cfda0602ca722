package handlers

import (
	"errors"
	"net/http"

	"github.com/andresuchdata/repo-gallery/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondError writes the JSON failure body for err. Every body carries "error".
func respondError(c *gin.Context, err error, fallback string) {
	status, body := errorBody(err, fallback)
	_ = c.Error(err)

	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Int("status", status).Str("path", c.Request.URL.Path).Msg("request failed")

	c.JSON(status, body)
}

func errorBody(err error, fallback string) (int, gin.H) {
	switch {
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, gin.H{"error": "API rate limit exceeded", "details": "Please try again later"}
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, gin.H{"error": "File was changed by another upload, please retry", "details": err.Error()}
	case errors.Is(err, service.ErrNoFile):
		return http.StatusBadRequest, gin.H{"error": "No file uploaded"}
	case errors.Is(err, service.ErrInvalidFileName),
		errors.Is(err, service.ErrMultipleFiles),
		errors.Is(err, service.ErrInvalidDocument):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	case errors.Is(err, service.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()}
	case errors.Is(err, service.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, gin.H{"error": err.Error()}
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusBadGateway, gin.H{"error": fallback, "details": err.Error()}
	default:
		// misconfiguration and anything unclassified
		return http.StatusInternalServerError, gin.H{"error": fallback, "details": err.Error()}
	}
}
